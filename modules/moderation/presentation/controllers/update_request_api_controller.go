package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/event"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/page"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/service"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	"github.com/openplaces/directory-sdk/modules/moderation/appliers"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/modules/moderation/services"
	"github.com/openplaces/directory-sdk/pkg/httpapi"
)

// UpdateRequestAPIController exposes the moderation workflow over JSON.
// The submitter and actioning user come from the X-User-ID header; session
// handling sits in front of this service and is not its concern.
type UpdateRequestAPIController struct {
	svc *services.UpdateRequestService
	log logrus.FieldLogger
}

func NewUpdateRequestAPIController(svc *services.UpdateRequestService, log logrus.FieldLogger) *UpdateRequestAPIController {
	return &UpdateRequestAPIController{svc: svc, log: log}
}

func (c *UpdateRequestAPIController) Key() string {
	return "/api/v1/update-requests"
}

func (c *UpdateRequestAPIController) Register(r *mux.Router) {
	sub := r.PathPrefix("/api/v1/update-requests").Subrouter()
	sub.HandleFunc("", c.create).Methods(http.MethodPost)
	sub.HandleFunc("", c.list).Methods(http.MethodGet)
	sub.HandleFunc("/{id}", c.get).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/approve", c.approve).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", c.reject).Methods(http.MethodDelete)
}

type createRequestBody struct {
	Type         string          `json:"updateable_type"`
	UpdateableID *uuid.UUID      `json:"updateable_id"`
	Data         json.RawMessage `json:"data"`
}

type createResponseBody struct {
	Request     *updaterequest.UpdateRequest `json:"update_request,omitempty"`
	AutoApplied bool                         `json:"auto_applied,omitempty"`
	Preview     jsondiff.Patch               `json:"preview,omitempty"`
}

func (c *UpdateRequestAPIController) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.userID(w, r)
	if !ok {
		return
	}

	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "bad_request", "malformed JSON body", nil)
		return
	}
	t, err := updaterequest.ParseType(body.Type)
	if err != nil {
		_ = httpapi.WriteValidationError(w, "validation_failed", "invalid proposal", map[string]string{
			"updateable_type": "is not a recognised type",
		})
		return
	}

	result, err := c.svc.Create(r.Context(), services.CreateParams{
		Type:         t,
		UpdateableID: body.UpdateableID,
		UserID:       userID,
		Data:         body.Data,
		Preview:      r.URL.Query().Get("preview") == "true",
	})
	if err != nil {
		c.writeError(w, err)
		return
	}

	resp := &createResponseBody{
		Request:     result.Request,
		AutoApplied: result.AutoApplied,
	}
	if result.Previewed {
		resp.Preview = result.Diff
		_ = httpapi.WriteJSON(w, http.StatusOK, resp)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, resp)
}

func (c *UpdateRequestAPIController) list(w http.ResponseWriter, r *http.Request) {
	f := updaterequest.Filter{
		PendingOnly: r.URL.Query().Get("pending") == "true",
		Limit:       100,
	}
	if t := r.URL.Query().Get("type"); t != "" {
		parsed, err := updaterequest.ParseType(t)
		if err != nil {
			_ = httpapi.WriteValidationError(w, "validation_failed", "invalid filter", map[string]string{
				"type": "is not a recognised type",
			})
			return
		}
		f.Type = parsed
	}

	items, err := c.svc.List(r.Context(), f)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"update_requests": items})
}

func (c *UpdateRequestAPIController) get(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	u, err := c.svc.GetByID(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"update_request": u})
}

func (c *UpdateRequestAPIController) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	userID, ok := c.userID(w, r)
	if !ok {
		return
	}

	u, err := c.svc.Approve(r.Context(), id, userID)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"update_request": u})
}

type rejectRequestBody struct {
	Message *string `json:"message"`
}

func (c *UpdateRequestAPIController) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	userID, ok := c.userID(w, r)
	if !ok {
		return
	}

	var body rejectRequestBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	u, err := c.svc.Reject(r.Context(), id, userID, body.Message)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"update_request": u})
}

func (c *UpdateRequestAPIController) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "unauthenticated", "missing or malformed X-User-ID header", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (c *UpdateRequestAPIController) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "bad_request", "malformed id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (c *UpdateRequestAPIController) writeError(w http.ResponseWriter, err error) {
	var verr *appliers.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = httpapi.WriteValidationError(w, "validation_failed", "invalid proposal", verr.Fields)
	case errors.Is(err, updaterequest.ErrEmptyPayload):
		_ = httpapi.WriteValidationError(w, "validation_failed", "invalid proposal", map[string]string{
			"data": "proposes no changes",
		})
	case errors.Is(err, updaterequest.ErrUnknownType):
		_ = httpapi.WriteValidationError(w, "validation_failed", "invalid proposal", map[string]string{
			"updateable_type": "is not a recognised type",
		})
	case errors.Is(err, updaterequest.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "update request not found", nil)
	case errors.Is(err, organisation.ErrNotFound),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, page.ErrNotFound),
		errors.Is(err, event.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "target entity not found", nil)
	case errors.Is(err, organisation.ErrSlugTaken),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, page.ErrSlugTaken):
		_ = httpapi.WriteValidationError(w, "validation_failed", "invalid proposal", map[string]string{
			"slug": "is already taken",
		})
	case errors.Is(err, updaterequest.ErrNotPending):
		_ = httpapi.WriteError(w, http.StatusConflict, "not_pending", "update request has already been actioned", nil)
	case errors.Is(err, services.ErrForbidden):
		_ = httpapi.WriteError(w, http.StatusForbidden, "forbidden", "user may not action update requests", nil)
	default:
		c.log.WithError(err).Error("update request handler failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", "something went wrong", nil)
	}
}
