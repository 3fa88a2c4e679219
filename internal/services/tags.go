package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
)

// normalizeTagNames trims names, drops blanks and collapses duplicates,
// keeping the order of first appearance.
func normalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// syncNoteTags replaces the note's whole tag set with names inside tx and
// returns the resulting set, sorted. The caller owns the transaction, so a
// failure here discards the partial replace along with everything else.
func syncNoteTags(ctx context.Context, tx *sqlx.Tx, noteID int64, names []string) ([]string, error) {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM note_tags WHERE note_id = ?`), noteID); err != nil {
		return nil, fmt.Errorf("clearing tags of note %d: %w", noteID, err)
	}

	names = normalizeTagNames(names)
	for _, name := range names {
		tagID, err := resolveTagID(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
			noteID, tagID); err != nil {
			return nil, fmt.Errorf("tagging note %d with %q: %w", noteID, name, err)
		}
	}

	slices.Sort(names)
	return names, nil
}

// resolveTagID returns the id of the named tag, creating it if needed.
// A concurrent creator of the same name makes the insert a no-op rather
// than an error, so the re-select always finds exactly one row.
func resolveTagID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), name); err != nil {
		return 0, fmt.Errorf("creating tag %q: %w", name, err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM tags WHERE name = ?`), name); err != nil {
		return 0, fmt.Errorf("resolving tag %q: %w", name, err)
	}
	return id, nil
}

// loadTags returns the sorted tag names of each note in noteIDs. Notes
// without tags map to an empty, non-nil slice.
func loadTags(ctx context.Context, q sqlx.QueryerContext, rebind func(string) string, noteIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(noteIDs))
	if len(noteIDs) == 0 {
		return out, nil
	}
	for _, id := range noteIDs {
		out[id] = []string{}
	}

	query, args, err := sqlx.In(`
		SELECT nt.note_id, t.name
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (?)`, noteIDs)
	if err != nil {
		return nil, fmt.Errorf("building tag query: %w", err)
	}

	var rows []struct {
		NoteID int64  `db:"note_id"`
		Name   string `db:"name"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, rebind(query), args...); err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}

	for _, r := range rows {
		out[r.NoteID] = append(out[r.NoteID], r.Name)
	}
	// Sorted in Go so the order is byte-wise regardless of the store's collation.
	for _, names := range out {
		slices.Sort(names)
	}
	return out, nil
}
