package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"keepintouch/internal/delivery/http/helpers"
	"keepintouch/internal/delivery/http/middleware"
	"keepintouch/internal/domain"
)

// ContactRequest is the request body for POST /contacts and PUT /contacts/{contactID}.
// On update the connection state is preserved; only profile fields are replaced.
type ContactRequest struct {
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	JobTitle    string             `json:"job_title"`
	BirthDate   *time.Time         `json:"date_of_birth"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	City        string             `json:"city"`
	Country     string             `json:"country"`
	Notes       string             `json:"notes"`
	SocialLinks domain.SocialLinks `json:"social_links"`
	Groups      []string           `json:"groups"`
}

// Validate implements Validator.
func (c ContactRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		errs = append(errs, "provide at least a first or last name")
	}
	if email := strings.TrimSpace(c.Email); email != "" && !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

func (c ContactRequest) toDomain() *domain.Contact {
	return &domain.Contact{
		FirstName:   strings.TrimSpace(c.FirstName),
		LastName:    strings.TrimSpace(c.LastName),
		JobTitle:    strings.TrimSpace(c.JobTitle),
		BirthDate:   c.BirthDate,
		Email:       strings.TrimSpace(c.Email),
		Phone:       strings.TrimSpace(c.Phone),
		City:        strings.TrimSpace(c.City),
		Country:     strings.TrimSpace(c.Country),
		Notes:       c.Notes,
		SocialLinks: c.SocialLinks,
		GroupIDs:    c.Groups,
	}
}

// SetFrequencyRequest is the request body for PATCH /contacts/{contactID}/connection.
type SetFrequencyRequest struct {
	FrequencyDays int `json:"frequency_days"`
}

// Validate implements Validator.
func (s SetFrequencyRequest) Validate() []string {
	var errs []string
	if s.FrequencyDays < 1 {
		errs = append(errs, "frequency_days must be at least 1")
	}
	return errs
}

// LogConnectionRequest is the request body for POST /contacts/{contactID}/connection/log.
// The note is optional.
type LogConnectionRequest struct {
	Note string `json:"note"`
}

// ContactDetail is a contact plus its effective group membership resolved at read time.
type ContactDetail struct {
	*domain.Contact
	EffectiveGroupIDs []string `json:"effective_group_ids"`
}

// ContactSuccessResponse is the success response envelope for single-contact endpoints.
type ContactSuccessResponse struct {
	Data  *domain.Contact   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ContactDetailSuccessResponse is the success response envelope for GET /contacts/{contactID} (200).
type ContactDetailSuccessResponse struct {
	Data  *ContactDetail    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListContactsSuccessResponse is the success response envelope for GET /contacts (200).
type ListContactsSuccessResponse struct {
	Data  []*domain.Contact `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RemindersSuccessResponse is the success response envelope for GET /contacts/reminders (200).
type RemindersSuccessResponse struct {
	Data  []*domain.Reminder `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ContactController handles contact CRUD, cadence, and reminder endpoints.
type ContactController struct {
	Logger  *slog.Logger
	Service domain.ContactService
}

// NewContactController creates a ContactController with the given logger and service.
func NewContactController(logger *slog.Logger, svc domain.ContactService) *ContactController {
	return &ContactController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a contact
// @Description Create a contact owned by the authenticated user. Requires at least a first or last name. The contact starts with the default connection frequency and no logged connections.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ContactRequest true "Contact data"
// @Success 201 {object} controllers.ContactSuccessResponse "data contains the created contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts [post]
func (c *ContactController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ContactRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	contact := req.toDomain()
	if err := c.Service.Create(r.Context(), userID, contact); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, contact)
}

// List godoc
// @Summary List contacts
// @Description List the authenticated user's contacts. Optional group filter (effective membership, resolved by union of both sides) and name sorting.
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param group query string false "Filter to effective members of this group ID"
// @Param sort query string false "Sort field: first_name or last_name" Enums(first_name, last_name)
// @Param order query string false "Sort order: asc or desc (default asc)" Enums(asc, desc)
// @Success 200 {object} controllers.ListContactsSuccessResponse "data contains the contact list"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts [get]
func (c *ContactController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	opts := domain.ContactListOptions{
		GroupID: strings.TrimSpace(r.URL.Query().Get("group")),
	}
	switch sort := r.URL.Query().Get("sort"); sort {
	case "", string(domain.SortByFirstName):
		opts.SortField = domain.SortByFirstName
	case string(domain.SortByLastName):
		opts.SortField = domain.SortByLastName
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "sort must be \"first_name\" or \"last_name\"")
		return
	}
	switch order := r.URL.Query().Get("order"); order {
	case "", "asc":
	case "desc":
		opts.Descending = true
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "order must be \"asc\" or \"desc\"")
		return
	}
	contacts, err := c.Service.List(r.Context(), userID, opts)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contacts)
}

// Get godoc
// @Summary Get a contact
// @Description Returns a contact with its connection history and effective group IDs (union of the contact's own group list and every group whose member list names the contact).
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID"
// @Success 200 {object} controllers.ContactDetailSuccessResponse "data contains the contact and effective_group_ids"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID} [get]
func (c *ContactController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	contactID := r.PathValue("contactID")
	if contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contactID")
		return
	}
	contact, groupIDs, err := c.Service.Get(r.Context(), contactID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &ContactDetail{Contact: contact, EffectiveGroupIDs: groupIDs})
}

// Update godoc
// @Summary Update a contact
// @Description Replace a contact's profile fields. Connection state (frequency, history, due date) is preserved.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID"
// @Param body body ContactRequest true "Contact data"
// @Success 200 {object} controllers.ContactSuccessResponse "data contains the updated contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID} [put]
func (c *ContactController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	contactID := r.PathValue("contactID")
	if contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contactID")
		return
	}
	var req ContactRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	contact := req.toDomain()
	contact.ID = contactID
	if err := c.Service.Update(r.Context(), userID, contact); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete a contact
// @Description Delete a contact. Group member lists that still name the contact are tolerated; membership readers skip unknown IDs.
// @Tags contacts
// @Security BearerAuth
// @Param contactID path string true "Contact ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID} [delete]
func (c *ContactController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	contactID := r.PathValue("contactID")
	if contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contactID")
		return
	}
	if err := c.Service.Delete(r.Context(), contactID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFrequency godoc
// @Summary Set a contact's connection frequency
// @Description Set how often (in days) the user intends to connect with this contact. Recomputes the next due date from the last logged connection, or from now when none exists.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID"
// @Param body body SetFrequencyRequest true "New frequency in days (at least 1)"
// @Success 200 {object} controllers.ContactSuccessResponse "data contains the updated contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID}/connection [patch]
func (c *ContactController) SetFrequency(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	contactID := r.PathValue("contactID")
	if contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contactID")
		return
	}
	var req SetFrequencyRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	contact, err := c.Service.SetFrequency(r.Context(), contactID, userID, req.FrequencyDays)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contact)
}

// LogConnection godoc
// @Summary Log a connection
// @Description Record that the user connected with this contact just now, with an optional note. Updates first/last connected timestamps and reschedules the next due date.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID"
// @Param body body LogConnectionRequest true "Optional note"
// @Success 200 {object} controllers.ContactSuccessResponse "data contains the updated contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID}/connection/log [post]
func (c *ContactController) LogConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	contactID := r.PathValue("contactID")
	if contactID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contactID")
		return
	}
	var req LogConnectionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	contact, err := c.Service.LogConnection(r.Context(), contactID, userID, strings.TrimSpace(req.Note))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contact)
}

// Reminders godoc
// @Summary List due reminders
// @Description Returns the user's contacts with a scheduled next connection, ordered soonest first, each with a derived due status. Contacts that never had a connection logged or frequency set are omitted.
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of reminders (0 or absent for all)"
// @Success 200 {object} controllers.RemindersSuccessResponse "data contains the reminder list"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/reminders [get]
func (c *ContactController) Reminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = v
	}
	reminders, err := c.Service.Reminders(r.Context(), userID, limit, time.Now())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reminders)
}

func (c *ContactController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "contact not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
