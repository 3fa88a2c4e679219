package handlers

import (
	"net/http"
	"strings"

	"github.com/isdelr/notes-be/internal/api/response"
	"github.com/isdelr/notes-be/internal/services"
	"github.com/isdelr/notes-be/internal/validation"
)

// NoteHandler handles HTTP requests for the current user's notes.
type NoteHandler struct {
	service  services.NoteServiceProvider
	validate *validation.Validator
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service services.NoteServiceProvider, validate *validation.Validator) *NoteHandler {
	return &NoteHandler{service: service, validate: validate}
}

// NotePayload is the body of create and update requests.
type NotePayload struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (p NotePayload) input() services.NoteInput {
	return services.NoteInput{Title: p.Title, Content: p.Content, Tags: p.Tags}
}

// SuccessResponse acknowledges a deletion.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// List handles GET /notes?search=&tags=a,b.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	query := r.URL.Query()
	filter := services.NoteFilter{Search: query.Get("search")}
	for _, v := range query["tags"] {
		filter.Tags = append(filter.Tags, strings.Split(v, ",")...)
	}

	notes, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, notes)
}

// Create handles POST /notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var payload NotePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.validate.Validate(payload); err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.service.Create(r.Context(), userID, payload.input())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, note)
}

// Get handles GET /notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := noteIDParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.service.GetByID(r.Context(), userID, id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, note)
}

// Update handles PUT /notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := noteIDParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var payload NotePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.validate.Validate(payload); err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.service.Update(r.Context(), userID, id, payload.input())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, note)
}

// Delete handles DELETE /notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := noteIDParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if !deleted {
		response.Error(w, r, errNoteNotFound)
		return
	}
	response.OK(w, r, SuccessResponse{Success: true})
}
