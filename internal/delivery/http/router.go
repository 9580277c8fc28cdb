package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"keepintouch/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps each owner-scoped handler; the invite token routes
// stay public because the token itself is the credential.
func NewRouter(
	userController *controllers.UserController,
	contactController *controllers.ContactController,
	groupController *controllers.GroupController,
	inviteController *controllers.InviteController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", userController.SignUp)
	mux.HandleFunc("POST /auth/login", userController.Login)

	// Users
	mux.HandleFunc("GET /users/me", requireAuth(userController.GetMe))
	mux.HandleFunc("PATCH /users/me", requireAuth(userController.UpdateMe))

	// Contacts
	mux.HandleFunc("GET /contacts", requireAuth(contactController.List))
	mux.HandleFunc("POST /contacts", requireAuth(contactController.Create))
	mux.HandleFunc("GET /contacts/reminders", requireAuth(contactController.Reminders))
	mux.HandleFunc("GET /contacts/{contactID}", requireAuth(contactController.Get))
	mux.HandleFunc("PUT /contacts/{contactID}", requireAuth(contactController.Update))
	mux.HandleFunc("DELETE /contacts/{contactID}", requireAuth(contactController.Delete))
	mux.HandleFunc("PATCH /contacts/{contactID}/connection", requireAuth(contactController.SetFrequency))
	mux.HandleFunc("POST /contacts/{contactID}/connection/log", requireAuth(contactController.LogConnection))

	// Groups
	mux.HandleFunc("GET /groups", requireAuth(groupController.List))
	mux.HandleFunc("POST /groups", requireAuth(groupController.Create))
	mux.HandleFunc("GET /groups/meta", requireAuth(groupController.Meta))
	mux.HandleFunc("GET /groups/{groupID}", requireAuth(groupController.Get))
	mux.HandleFunc("PUT /groups/{groupID}", requireAuth(groupController.Update))
	mux.HandleFunc("DELETE /groups/{groupID}", requireAuth(groupController.Delete))
	mux.HandleFunc("POST /groups/{groupID}/members", requireAuth(groupController.BulkAddMembers))
	mux.HandleFunc("DELETE /groups/{groupID}/members", requireAuth(groupController.BulkRemoveMembers))
	mux.HandleFunc("POST /groups/{groupID}/members/{contactID}", requireAuth(groupController.AddMember))
	mux.HandleFunc("DELETE /groups/{groupID}/members/{contactID}", requireAuth(groupController.RemoveMember))

	// Invites
	mux.HandleFunc("GET /invites", requireAuth(inviteController.List))
	mux.HandleFunc("POST /invites", requireAuth(inviteController.Create))
	mux.HandleFunc("DELETE /invites/{inviteID}", requireAuth(inviteController.Revoke))
	mux.HandleFunc("GET /invites/{token}", inviteController.GetByToken)
	mux.HandleFunc("POST /invites/{token}/accept", inviteController.Accept)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
