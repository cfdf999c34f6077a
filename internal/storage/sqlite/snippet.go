package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/snippetsync/snippetd/internal/apperror"
	"github.com/snippetsync/snippetd/internal/model"
)

const snippetColumns = `id, title, code, description, language, project_context, created_at, updated_at, gist_id`

// scanSnippet reads one row into a model.Snippet. Column order must match
// snippetColumns.
func scanSnippet(scanner interface{ Scan(...any) error }) (*model.Snippet, error) {
	var s model.Snippet
	err := scanner.Scan(
		&s.ID, &s.Title, &s.Code, &s.Description, &s.Language,
		&s.ProjectContext, &s.CreatedAt, &s.UpdatedAt, &s.GistID,
	)
	if err != nil {
		return nil, err
	}
	s.Tags = []string{}
	return &s, nil
}

// GetAll returns every snippet ordered by updated_at descending, with tags
// attached in a single join query instead of one query per snippet.
func (s *Store) GetAll(ctx context.Context) ([]model.Snippet, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	index := make(map[string]int)
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		index[snippet.ID] = len(snippets)
		snippets = append(snippets, *snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	if len(snippets) == 0 {
		return snippets, nil
	}

	tagRows, err := s.conn.QueryContext(ctx,
		`SELECT st.snippet_id, t.name
		 FROM snippet_tags st
		 JOIN tags t ON t.id = st.tag_id
		 ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippet tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var snippetID, name string
		if err := tagRows.Scan(&snippetID, &name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		if i, ok := index[snippetID]; ok {
			snippets[i].Tags = append(snippets[i].Tags, name)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet tags: %w", err)
	}

	return snippets, nil
}

// Get returns the snippet with the given id, or nil if no row exists.
// Absence is a normal result here, not an error.
func (s *Store) Get(ctx context.Context, id string) (*model.Snippet, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	snippet, err := scanSnippet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	snippet.Tags, err = s.snippetTags(ctx, id)
	if err != nil {
		return nil, err
	}
	return snippet, nil
}

// snippetTags returns the tag names attached to one snippet.
func (s *Store) snippetTags(ctx context.Context, snippetID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT t.name
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 WHERE st.snippet_id = ?
		 ORDER BY t.name`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading tags for %s: %w", snippetID, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// Save upserts the snippet and replaces its entire tag association set in
// one transaction: upsert the row, drop the old associations, lazily insert
// unseen tag names into the vocabulary, insert the new associations. Any
// failure rolls the whole save back — a partially updated tag set would be
// a correctness violation for the sync layer.
func (s *Store) Save(ctx context.Context, snippet *model.Snippet) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageFailed("save", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			code = excluded.code,
			description = excluded.description,
			language = excluded.language,
			project_context = excluded.project_context,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			gist_id = excluded.gist_id`,
		snippet.ID, snippet.Title, snippet.Code, snippet.Description,
		snippet.Language, snippet.ProjectContext,
		snippet.CreatedAt, snippet.UpdatedAt, snippet.GistID,
	)
	if err != nil {
		return apperror.StorageFailed("save", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippet.ID); err != nil {
		return apperror.StorageFailed("save", err)
	}

	for _, tag := range snippet.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return apperror.StorageFailed("save", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag_id)
			 SELECT ?, id FROM tags WHERE name = ?`,
			snippet.ID, tag); err != nil {
			return apperror.StorageFailed("save", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.StorageFailed("save", err)
	}
	return nil
}

// Delete removes the snippet row; the association rows go with it via
// ON DELETE CASCADE. Reports whether a row actually existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return false, apperror.StorageFailed("delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperror.StorageFailed("delete", err)
	}
	return affected > 0, nil
}

// Search compiles the filter to SQL: AND across the specified fields, with
// the free-text term ORed over title/code/description, and required tags
// expressed as a join counted against the number of requested tags.
func (s *Store) Search(ctx context.Context, f model.Filter) ([]model.Snippet, error) {
	query := `SELECT DISTINCT s.id, s.title, s.code, s.description, s.language,
		s.project_context, s.created_at, s.updated_at, s.gist_id
		FROM snippets s`
	var (
		conditions []string
		args       []any
	)

	if len(f.Tags) > 0 {
		query += `
		 JOIN snippet_tags st ON st.snippet_id = s.id
		 JOIN tags t ON t.id = st.tag_id`
		placeholders := strings.Repeat("?,", len(f.Tags))
		conditions = append(conditions, `t.name IN (`+placeholders[:len(placeholders)-1]+`)`)
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}
	if f.Language != "" {
		conditions = append(conditions, `s.language = ?`)
		args = append(args, f.Language)
	}
	if f.Project != "" {
		conditions = append(conditions, `s.project_context = ?`)
		args = append(args, f.Project)
	}
	if f.SearchTerm != "" {
		conditions = append(conditions, `(s.title LIKE ? OR s.code LIKE ? OR s.description LIKE ?)`)
		term := "%" + f.SearchTerm + "%"
		args = append(args, term, term, term)
	}

	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	if len(f.Tags) > 0 {
		// A snippet matches only if it carries every requested tag.
		query += ` GROUP BY s.id HAVING COUNT(DISTINCT t.name) = ?`
		args = append(args, len(f.Tags))
	}
	query += ` ORDER BY s.updated_at DESC`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	for i := range snippets {
		snippets[i].Tags, err = s.snippetTags(ctx, snippets[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return snippets, nil
}

// AllTags returns the distinct tags currently attached to at least one
// snippet, sorted alphabetically. Vocabulary entries orphaned by deletes
// are excluded.
func (s *Store) AllTags(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx,
		`SELECT DISTINCT t.name
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 ORDER BY t.name`)
}

// AllLanguages returns the distinct languages, sorted alphabetically.
func (s *Store) AllLanguages(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx,
		`SELECT DISTINCT language FROM snippets ORDER BY language`)
}

// AllProjects returns the distinct project contexts, sorted alphabetically.
func (s *Store) AllProjects(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx,
		`SELECT DISTINCT project_context FROM snippets ORDER BY project_context`)
}

func (s *Store) stringColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("sqlite: scanning value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating values: %w", err)
	}
	return values, nil
}

// Categories groups snippets by the given kind with live counts, most
// populous first.
func (s *Store) Categories(ctx context.Context, kind model.CategoryKind) ([]model.Category, error) {
	var query string
	switch kind {
	case model.CategoryTag:
		query = `SELECT t.name, COUNT(st.snippet_id) AS count
			 FROM tags t
			 JOIN snippet_tags st ON st.tag_id = t.id
			 GROUP BY t.name
			 ORDER BY count DESC, t.name`
	case model.CategoryLanguage:
		query = `SELECT language AS name, COUNT(*) AS count
			 FROM snippets
			 GROUP BY language
			 ORDER BY count DESC, name`
	case model.CategoryProject:
		query = `SELECT project_context AS name, COUNT(*) AS count
			 FROM snippets
			 GROUP BY project_context
			 ORDER BY count DESC, name`
	default:
		return nil, fmt.Errorf("sqlite: unknown category kind %q", kind)
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c := model.Category{Kind: kind}
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}
	return categories, nil
}
