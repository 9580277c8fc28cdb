package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"keepintouch/internal/delivery/http/helpers"
	"keepintouch/internal/delivery/http/middleware"
	"keepintouch/internal/domain"
)

// CreateInviteRequest is the request body for POST /invites.
type CreateInviteRequest struct {
	ContactEmail string    `json:"contact_email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Validate implements Validator.
func (c CreateInviteRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(c.ContactEmail))
	if email == "" {
		errs = append(errs, "contact_email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if c.ExpiresAt.IsZero() {
		errs = append(errs, "expires_at is required")
	}
	return errs
}

// InviteView is an invite with its derived status attached. Status is computed
// from timestamps at response time and never stored.
type InviteView struct {
	*domain.Invite
	Status domain.InviteStatus `json:"status"`
}

// InvitePublicView is the public invite page payload. It omits the owner's
// invite list context; the token itself is the credential.
type InvitePublicView struct {
	ContactEmail string              `json:"contact_email"`
	Status       domain.InviteStatus `json:"status"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// InviteSuccessResponse is the success response envelope for single-invite endpoints.
type InviteSuccessResponse struct {
	Data  *InviteView       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// InvitePublicSuccessResponse is the success response envelope for GET /invites/{token} (200).
type InvitePublicSuccessResponse struct {
	Data  *InvitePublicView `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListInvitesData is the payload for GET /invites: one page of invites plus pagination metadata.
type ListInvitesData struct {
	Invites    []*InviteView          `json:"invites"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListInvitesSuccessResponse is the success response envelope for GET /invites (200).
type ListInvitesSuccessResponse struct {
	Data  ListInvitesData   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// InviteController handles invite issuance, the public accept flow, and revocation.
type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

// NewInviteController creates an InviteController with the given logger and service.
func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Issue an invite
// @Description Create an invite for a contact email with an expiry deadline and send the invite email. A failed send does not void the stored invite; the link can still be copied from the list.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInviteRequest true "Contact email and expiry"
// @Success 201 {object} controllers.InviteSuccessResponse "data contains the created invite with its token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites [post]
func (c *InviteController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Service.Issue(r.Context(), userID, req.ContactEmail, req.ExpiresAt)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, &InviteView{Invite: inv, Status: inv.Status(time.Now())})
}

// List godoc
// @Summary List invites
// @Description List the authenticated user's invites, newest first, with derived statuses and pagination metadata.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitesSuccessResponse "data contains invites and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites [get]
func (c *InviteController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	invites, total, err := c.Service.List(r.Context(), userID, params)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	now := time.Now()
	views := make([]*InviteView, len(invites))
	for i, inv := range invites {
		views[i] = &InviteView{Invite: inv, Status: inv.Status(now)}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitesData{
		Invites:    views,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetByToken godoc
// @Summary Get invite by token
// @Description Public invite page lookup. Returns the contact email, derived status, and expiry for the given token. No authentication; the token is the credential.
// @Tags invites
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} controllers.InvitePublicSuccessResponse "data contains the invite's public view"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{token} [get]
func (c *InviteController) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	inv, err := c.Service.GetByToken(r.Context(), token)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &InvitePublicView{
		ContactEmail: inv.ContactEmail,
		Status:       inv.Status(time.Now()),
		ExpiresAt:    inv.ExpiresAt,
	})
}

// Accept godoc
// @Summary Accept an invite
// @Description Public one-shot acceptance. Fails with 404 for an unknown token, 409 when already accepted, 410 when past the expiry deadline.
// @Tags invites
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} controllers.InviteSuccessResponse "data contains the accepted invite"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: gone"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{token}/accept [post]
func (c *InviteController) Accept(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	inv, err := c.Service.Accept(r.Context(), token)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &InviteView{Invite: inv, Status: inv.Status(time.Now())})
}

// Revoke godoc
// @Summary Revoke an invite
// @Description Delete an invite in any state. A revoked token is no longer actionable.
// @Tags invites
// @Security BearerAuth
// @Param inviteID path string true "Invite ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID} [delete]
func (c *InviteController) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	inviteID := r.PathValue("inviteID")
	if inviteID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing inviteID")
		return
	}
	if err := c.Service.Revoke(r.Context(), inviteID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *InviteController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
	case errors.Is(err, domain.ErrConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invite already accepted")
	case errors.Is(err, domain.ErrExpired):
		helpers.WriteJSONError(w, http.StatusGone, helpers.ErrCodeGone, "invite expired")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
