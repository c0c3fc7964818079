package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"studysync/api/internal/store"
)

// SQLSearch implements Searcher with ILIKE queries against Postgres as
// the fallback backend.
type SQLSearch struct {
	db *sql.DB
}

func NewSQLSearch(db *sql.DB) *SQLSearch {
	return &SQLSearch{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *SQLSearch) Healthy() bool {
	return true
}

// Search runs a UNION ALL over tasks and live materials. The task
// branch applies the same visibility predicate the task listing uses.
func (p *SQLSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	args := []any{"%" + q.Text + "%"}
	argN := 2
	next := func(value any) string {
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", argN)
		argN++
		return placeholder
	}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultTask {
		var visibility string
		if q.Viewer.Role == store.RoleStudent {
			email := next(q.Viewer.Email)
			branch := next(q.Viewer.Branch)
			semester := next(q.Viewer.Semester)
			visibility = fmt.Sprintf(`(t.created_by = %s
				OR t.assigned_to = %s
				OR (t.branch_code = %s AND t.semester = %s
					AND EXISTS (SELECT 1 FROM users u WHERE u.email = t.created_by AND u.role = 'teacher')))`,
				email, email, branch, semester)
		} else {
			visibility = fmt.Sprintf("t.created_by = %s", next(q.Viewer.Email))
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'task'::text AS type, t.id::text, t.title,
				left(t.description, 160) AS snippet,
				coalesce(t.branch_code, '') AS branch, coalesce(t.semester, 0) AS semester
			FROM tasks t
			WHERE %s
				AND (t.title ILIKE $1 OR t.description ILIKE $1 OR t.priority ILIKE $1 OR t.status ILIKE $1)`,
			visibility))
	}

	if q.FilterType == "" || q.FilterType == ResultMaterial {
		subQueries = append(subQueries, `
			SELECT 'material'::text AS type, f.id::text, s.name AS title,
				f.filename AS snippet,
				s.branch_code AS branch, s.semester
			FROM files f
			JOIN subjects s ON s.id = f.subject_id
			WHERE f.is_deleted = FALSE
				AND (f.filename ILIKE $1 OR f.file_tag_id ILIKE $1 OR s.name ILIKE $1 OR s.course_code ILIKE $1)`)
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	union := strings.Join(subQueries, " UNION ALL ")
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	dataSQL := fmt.Sprintf("SELECT type, id, title, snippet, branch, semester FROM (%s) sub ORDER BY type, id LIMIT %d OFFSET %d",
		union, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sql search count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sql search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Branch, &r.Semester); err != nil {
			return nil, 0, fmt.Errorf("sql search scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *SQLSearch) LoadAllRecords(ctx context.Context) ([]TaskRecord, []MaterialRecord, error) {
	taskRows, err := p.db.QueryContext(ctx, `
		SELECT t.id::text, t.title, t.description, t.priority, t.status, t.created_by,
			coalesce(t.assigned_to, ''), coalesce(t.branch_code, ''), coalesce(t.semester, 0),
			coalesce(u.role, '')
		FROM tasks t
		LEFT JOIN users u ON u.email = t.created_by
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load tasks: %w", err)
	}
	defer taskRows.Close()

	taskRecords := make([]TaskRecord, 0)
	for taskRows.Next() {
		var t TaskRecord
		if err := taskRows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status,
			&t.CreatedBy, &t.AssignedTo, &t.Branch, &t.Semester, &t.CreatorRole); err != nil {
			return nil, nil, fmt.Errorf("scan task record: %w", err)
		}
		taskRecords = append(taskRecords, t)
	}
	if err := taskRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate task records: %w", err)
	}

	materialRows, err := p.db.QueryContext(ctx, `
		SELECT f.id::text, f.file_tag_id, f.filename, s.name, s.course_code, s.branch_code, s.semester
		FROM files f
		JOIN subjects s ON s.id = f.subject_id
		WHERE f.is_deleted = FALSE
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load materials: %w", err)
	}
	defer materialRows.Close()

	materialRecords := make([]MaterialRecord, 0)
	for materialRows.Next() {
		var rec MaterialRecord
		if err := materialRows.Scan(&rec.ID, &rec.TagID, &rec.Filename, &rec.Subject,
			&rec.CourseCode, &rec.Branch, &rec.Semester); err != nil {
			return nil, nil, fmt.Errorf("scan material record: %w", err)
		}
		materialRecords = append(materialRecords, rec)
	}
	if err := materialRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate material records: %w", err)
	}

	return taskRecords, materialRecords, nil
}
