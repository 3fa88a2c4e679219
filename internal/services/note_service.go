package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/isdelr/notes-be/internal/apperrors"
	"github.com/isdelr/notes-be/internal/database"
	"github.com/isdelr/notes-be/internal/models"
)

// NoteServiceProvider defines the interface for note services. Every method
// is scoped to the owning user; another user's note behaves as if it did
// not exist.
type NoteServiceProvider interface {
	Create(ctx context.Context, userID int64, in NoteInput) (models.Note, error)
	List(ctx context.Context, userID int64, filter NoteFilter) ([]models.Note, error)
	GetByID(ctx context.Context, userID, id int64) (models.Note, error)
	Update(ctx context.Context, userID, id int64, in NoteInput) (models.Note, error)
	Delete(ctx context.Context, userID, id int64) (bool, error)
	ListTagsForUser(ctx context.Context, userID int64) ([]string, error)
}

// NoteInput carries the writable fields of a note.
type NoteInput struct {
	Title   string
	Content string
	Tags    []string
}

// NoteFilter narrows List. Zero values mean no filtering.
type NoteFilter struct {
	Search string   // case-insensitive substring of title or content
	Tags   []string // note must carry every one of these
}

// NoteService provides business logic for notes and their tags.
type NoteService struct {
	db  *database.DB
	now func() time.Time
}

// NewNoteService creates a new NoteService.
func NewNoteService(db *database.DB) *NoteService {
	return &NoteService{db: db, now: time.Now}
}

var (
	errNoteNotFound  = apperrors.NotFound("note not found")
	errTitleRequired = apperrors.InvalidArgumentWithDetails("validation failed", map[string]string{"title": "is required"})
)

const noteColumns = `n.id, n.user_id, n.title, n.content, n.created_at, n.updated_at`

func (s *NoteService) timestamp() time.Time {
	// Postgres keeps microseconds; truncating keeps both stores round-trip exact.
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create inserts a note and its tags in one transaction.
func (s *NoteService) Create(ctx context.Context, userID int64, in NoteInput) (models.Note, error) {
	if in.Title == "" {
		return models.Note{}, errTitleRequired
	}

	now := s.timestamp()
	note := models.Note{
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &note.ID, tx.Rebind(`
			INSERT INTO notes (user_id, title, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
			note.UserID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting note: %w", err)
		}
		note.Tags, err = syncNoteTags(ctx, tx, note.ID, in.Tags)
		return err
	})
	if err != nil {
		return models.Note{}, apperrors.Internal("failed to create note", err)
	}
	return note, nil
}

// List returns the user's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, userID int64, filter NoteFilter) ([]models.Note, error) {
	var (
		where = []string{"n.user_id = ?"}
		args  = []any{userID}
	)

	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		where = append(where, "("+s.db.Lower("n.title")+` LIKE ? ESCAPE '\' OR `+s.db.Lower("n.content")+` LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if tags := normalizeTagNames(filter.Tags); len(tags) > 0 {
		// Restrict each note's associations to the requested names; a note
		// qualifies only when every requested name is among them.
		where = append(where, `n.id IN (
			SELECT nt.note_id
			FROM note_tags nt
			JOIN tags t ON t.id = nt.tag_id
			WHERE t.name IN (?)
			GROUP BY nt.note_id
			HAVING COUNT(DISTINCT nt.tag_id) = ?)`)
		args = append(args, tags, len(tags))
	}

	query, args, err := sqlx.In(
		`SELECT `+noteColumns+` FROM notes n WHERE `+strings.Join(where, " AND ")+
			` ORDER BY n.updated_at DESC, n.id DESC`, args...)
	if err != nil {
		return nil, apperrors.Internal("failed to list notes", err)
	}

	notes := []models.Note{}
	if err := s.db.SelectContext(ctx, &notes, s.db.Rebind(query), args...); err != nil {
		return nil, apperrors.Internal("failed to list notes", fmt.Errorf("querying notes: %w", err))
	}

	ids := make([]int64, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
	}
	tags, err := loadTags(ctx, s.db, s.db.Rebind, ids)
	if err != nil {
		return nil, apperrors.Internal("failed to list notes", err)
	}
	for i := range notes {
		normalizeTimes(&notes[i])
		notes[i].Tags = tags[notes[i].ID]
	}
	return notes, nil
}

// GetByID returns one of the user's notes.
func (s *NoteService) GetByID(ctx context.Context, userID, id int64) (models.Note, error) {
	note, err := getNote(ctx, s.db, s.db.Rebind, userID, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return models.Note{}, apperrors.Internal("failed to load note", err)
	}
	return note, err
}

// Update rewrites a note's fields and replaces its tag set in one
// transaction.
func (s *NoteService) Update(ctx context.Context, userID, id int64, in NoteInput) (models.Note, error) {
	if in.Title == "" {
		return models.Note{}, errTitleRequired
	}

	var note models.Note
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
			in.Title, in.Content, s.timestamp(), id, userID)
		if err != nil {
			return fmt.Errorf("updating note %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating note %d: %w", id, err)
		}
		if n == 0 {
			return errNoteNotFound
		}

		if _, err := syncNoteTags(ctx, tx, id, in.Tags); err != nil {
			return err
		}
		note, err = getNote(ctx, tx, tx.Rebind, userID, id)
		return err
	})
	switch {
	case err == nil:
		return note, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return models.Note{}, errNoteNotFound
	default:
		return models.Note{}, apperrors.Internal("failed to update note", err)
	}
}

// Delete removes one of the user's notes. It reports false when nothing
// matched, which makes repeated deletes harmless.
func (s *NoteService) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return false, apperrors.Internal("failed to delete note", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.Internal("failed to delete note", err)
	}
	return n > 0, nil
}

// ListTagsForUser returns the distinct tag names on the user's notes, sorted.
func (s *NoteService) ListTagsForUser(ctx context.Context, userID int64) ([]string, error) {
	names := []string{}
	err := s.db.SelectContext(ctx, &names, s.db.Rebind(`
		SELECT DISTINCT t.name
		FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		JOIN notes n ON n.id = nt.note_id
		WHERE n.user_id = ?`), userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tags", err)
	}
	slices.Sort(names)
	return names, nil
}

func getNote(ctx context.Context, q sqlx.QueryerContext, rebind func(string) string, userID, id int64) (models.Note, error) {
	var note models.Note
	err := sqlx.GetContext(ctx, q, &note,
		rebind(`SELECT `+noteColumns+` FROM notes n WHERE n.id = ? AND n.user_id = ?`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, errNoteNotFound
		}
		return models.Note{}, fmt.Errorf("loading note %d: %w", id, err)
	}

	tags, err := loadTags(ctx, q, rebind, []int64{note.ID})
	if err != nil {
		return models.Note{}, err
	}
	normalizeTimes(&note)
	note.Tags = tags[note.ID]
	return note, nil
}

func normalizeTimes(n *models.Note) {
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in s match literally under ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
