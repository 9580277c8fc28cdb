package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"keepintouch/internal/delivery/http/helpers"
	"keepintouch/internal/delivery/http/middleware"
	"keepintouch/internal/domain"
)

// GroupRequest is the request body for POST /groups and PUT /groups/{groupID}.
type GroupRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (g GroupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(g.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

func (g GroupRequest) toDomain() *domain.Group {
	return &domain.Group{
		Name:        strings.TrimSpace(g.Name),
		Type:        strings.TrimSpace(strings.ToLower(g.Type)),
		Description: strings.TrimSpace(g.Description),
	}
}

// BulkMembersRequest is the request body for bulk member add/remove on a group.
type BulkMembersRequest struct {
	ContactIDs []string `json:"contact_ids"`
}

// Validate implements Validator.
func (b BulkMembersRequest) Validate() []string {
	var errs []string
	if len(b.ContactIDs) == 0 {
		errs = append(errs, "contact_ids is required")
	}
	return errs
}

// GroupMeta describes the fixed group categories for pickers.
type GroupMeta struct {
	Types []string `json:"types"`
}

// GroupSuccessResponse is the success response envelope for single-group endpoints.
type GroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GroupDetailSuccessResponse is the success response envelope for GET /groups/{groupID} (200).
type GroupDetailSuccessResponse struct {
	Data  *domain.GroupDetail `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListGroupsSuccessResponse is the success response envelope for GET /groups (200).
type ListGroupsSuccessResponse struct {
	Data  []*domain.Group   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GroupMetaSuccessResponse is the success response envelope for GET /groups/meta (200).
type GroupMetaSuccessResponse struct {
	Data  GroupMeta         `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BulkMembersSuccessResponse is the success response envelope for bulk member operations (200).
type BulkMembersSuccessResponse struct {
	Data  *domain.BulkResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// GroupController handles group CRUD and membership endpoints.
type GroupController struct {
	Logger  *slog.Logger
	Service domain.GroupService
}

// NewGroupController creates a GroupController with the given logger and service.
func NewGroupController(logger *slog.Logger, svc domain.GroupService) *GroupController {
	return &GroupController{
		Logger:  logger,
		Service: svc,
	}
}

// Meta godoc
// @Summary List group types
// @Description Returns the fixed set of group categories. Stored legacy values outside this list are kept and remain selectable.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GroupMetaSuccessResponse "data contains the type list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /groups/meta [get]
func (c *GroupController) Meta(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, GroupMeta{Types: domain.GroupTypes})
}

// Create godoc
// @Summary Create a group
// @Description Create a group owned by the authenticated user. Name is required; an empty type defaults to "other".
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GroupRequest true "Group data"
// @Success 201 {object} controllers.GroupSuccessResponse "data contains the created group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups [post]
func (c *GroupController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req GroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	group := req.toDomain()
	if err := c.Service.Create(r.Context(), userID, group); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, group)
}

// List godoc
// @Summary List groups
// @Description List the authenticated user's groups.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListGroupsSuccessResponse "data contains the group list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups [get]
func (c *GroupController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groups, err := c.Service.List(r.Context(), userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, groups)
}

// Get godoc
// @Summary Get a group
// @Description Returns a group with its effective member IDs (union of both membership sides), the resolved member contacts, and the non-member candidates for the add picker.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupDetailSuccessResponse "data contains the group and derived membership"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [get]
func (c *GroupController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	detail, err := c.Service.Get(r.Context(), groupID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// Update godoc
// @Summary Update a group
// @Description Replace a group's name, type, and description. The member list is not touched; use the member endpoints.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body GroupRequest true "Group data"
// @Success 200 {object} controllers.GroupSuccessResponse "data contains the updated group"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [put]
func (c *GroupController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	var req GroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	group := req.toDomain()
	group.ID = groupID
	if err := c.Service.Update(r.Context(), userID, group); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, group)
}

// Delete godoc
// @Summary Delete a group
// @Description Delete a group. Contact group lists that still name the group are tolerated; membership readers skip unknown IDs.
// @Tags groups
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID} [delete]
func (c *GroupController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	if err := c.Service.Delete(r.Context(), groupID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMember godoc
// @Summary Add a contact to a group
// @Description Add a single contact to the group's member list. Adding a contact that is already a member is a no-op success.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param contactID path string true "Contact ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members/{contactID} [post]
func (c *GroupController) AddMember(w http.ResponseWriter, r *http.Request) {
	c.memberOp(w, r, c.Service.AddMember)
}

// RemoveMember godoc
// @Summary Remove a contact from a group
// @Description Remove a single contact from the group. Both membership sides are pruned so the union cannot re-grant the membership. Removing a non-member is a no-op success.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param contactID path string true "Contact ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members/{contactID} [delete]
func (c *GroupController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	c.memberOp(w, r, c.Service.RemoveMember)
}

// BulkAddMembers godoc
// @Summary Add contacts to a group
// @Description Best-effort bulk add. Each contact is attempted independently; a failure on one never rolls back the others. The response lists the IDs changed and the IDs that failed with reasons.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body BulkMembersRequest true "Contact IDs to add"
// @Success 200 {object} controllers.BulkMembersSuccessResponse "data contains changed and failed IDs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members [post]
func (c *GroupController) BulkAddMembers(w http.ResponseWriter, r *http.Request) {
	c.bulkMemberOp(w, r, c.Service.BulkAdd)
}

// BulkRemoveMembers godoc
// @Summary Remove contacts from a group
// @Description Best-effort bulk remove. Each contact is attempted independently and pruned from both membership sides. The response lists the IDs changed and the IDs that failed with reasons.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body BulkMembersRequest true "Contact IDs to remove"
// @Success 200 {object} controllers.BulkMembersSuccessResponse "data contains changed and failed IDs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/members [delete]
func (c *GroupController) BulkRemoveMembers(w http.ResponseWriter, r *http.Request) {
	c.bulkMemberOp(w, r, c.Service.BulkRemove)
}

func (c *GroupController) memberOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, groupID, contactID, ownerID string) error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID := r.PathValue("groupID")
	contactID := r.PathValue("contactID")
	if groupID == "" || contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID or contactID")
		return
	}
	if err := op(r.Context(), groupID, contactID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *GroupController) bulkMemberOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, groupID, ownerID string, contactIDs []string) (*domain.BulkResult, error)) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID := r.PathValue("groupID")
	if groupID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing groupID")
		return
	}
	var req BulkMembersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := op(r.Context(), groupID, userID, req.ContactIDs)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

func (c *GroupController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
