package handlers

import (
	"net/http"

	"github.com/isdelr/notes-be/internal/api/response"
	"github.com/isdelr/notes-be/internal/services"
)

// TagHandler serves the tag directory as seen by one user.
type TagHandler struct {
	service services.NoteServiceProvider
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(service services.NoteServiceProvider) *TagHandler {
	return &TagHandler{service: service}
}

// List handles GET /tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	tags, err := h.service.ListTagsForUser(r.Context(), userID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, tags)
}
