package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/notes-be/internal/apperrors"
	"github.com/isdelr/notes-be/internal/auth"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody   = apperrors.InvalidArgument("invalid request body")
	errInvalidNoteID = apperrors.InvalidArgument("invalid note id")
	errNoteNotFound  = apperrors.NotFound("note not found")
	errNoUser        = apperrors.Unauthenticated("unauthenticated")
)

// decodeJSON reads the request body into dst. Any decoding problem is
// reported to the client as a single invalid-body error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	// Exactly one JSON value per body.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// noteIDParam parses the {id} URL parameter; only positive integers are valid.
func noteIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidNoteID
	}
	return id, nil
}

// currentUserID returns the id RequireAuth placed in the request context.
func currentUserID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, errNoUser
	}
	return id, nil
}
