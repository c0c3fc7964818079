package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- accounts ----

func (s *PostgresStore) GetAccount(ctx context.Context, email string) (Account, error) {
	var account Account
	var branch sql.NullString
	var semester sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT email, password_hash, role, branch_code, current_semester, created_at
		FROM users
		WHERE email=$1
	`, email).Scan(&account.Email, &account.PasswordHash, &account.Role, &branch, &semester, &account.CreatedAt)
	if err != nil {
		return Account{}, err
	}
	account.BranchCode = branch.String
	account.Semester = int(semester.Int64)
	return account, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account Account) error {
	var branch sql.NullString
	var semester sql.NullInt64
	if account.Role == RoleStudent {
		branch = sql.NullString{String: account.BranchCode, Valid: true}
		semester = sql.NullInt64{Int64: int64(account.Semester), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, branch_code, current_semester)
		VALUES ($1, $2, $3, $4, $5)
	`, account.Email, account.PasswordHash, account.Role, branch, semester)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert account %s: %w", account.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ---- reference data ----

func (s *PostgresStore) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_code, branch_name, is_active
		FROM branches
		WHERE is_active
		ORDER BY branch_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	items := make([]Branch, 0)
	for rows.Next() {
		var item Branch
		if err := rows.Scan(&item.Code, &item.Name, &item.Active); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListStudyGroups(ctx context.Context) ([]StudyGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_code, group_name, is_active
		FROM study_groups
		WHERE is_active
		ORDER BY group_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}
	defer rows.Close()

	items := make([]StudyGroup, 0)
	for rows.Next() {
		var item StudyGroup
		if err := rows.Scan(&item.Code, &item.Name, &item.Active); err != nil {
			return nil, fmt.Errorf("scan study group: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study groups: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) EnsureBranch(ctx context.Context, branch Branch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (branch_code, branch_name, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_code) DO NOTHING
	`, branch.Code, branch.Name, branch.Active)
	if err != nil {
		return fmt.Errorf("ensure branch %s: %w", branch.Code, err)
	}
	return nil
}

func (s *PostgresStore) EnsureStudyGroup(ctx context.Context, group StudyGroup) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_groups (group_code, group_name, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_code) DO NOTHING
	`, group.Code, group.Name, group.Active)
	if err != nil {
		return fmt.Errorf("ensure study group %s: %w", group.Code, err)
	}
	return nil
}

// ---- files ----

// CreateFile stores an uploaded document in a single transaction: it
// resolves the branch and group names, reuses or creates the subject row
// keyed by its natural identity, claims the next tag sequence number for
// the branch+semester pair, and inserts the blob. Any failure rolls the
// whole upload back.
func (s *PostgresStore) CreateFile(ctx context.Context, subjectName, courseCode, branchName, groupName string, semester int, filename string, data []byte, uploadedBy string) (int64, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("begin upload tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var branchCode string
	err = tx.QueryRowContext(ctx, `SELECT branch_code FROM branches WHERE branch_name=$1`, branchName).Scan(&branchCode)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrBranchNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("resolve branch %q: %w", branchName, err)
	}

	var groupCode string
	err = tx.QueryRowContext(ctx, `SELECT group_code FROM study_groups WHERE group_name=$1`, groupName).Scan(&groupCode)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrGroupNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("resolve group %q: %w", groupName, err)
	}

	var subjectID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO subjects (name, course_code, branch_code, semester, group_code, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name, course_code, branch_code, semester, group_code)
			DO UPDATE SET created_by = subjects.created_by
		RETURNING id
	`, subjectName, courseCode, branchCode, semester, groupCode, uploadedBy).Scan(&subjectID)
	if err != nil {
		return 0, "", fmt.Errorf("upsert subject: %w", err)
	}

	var seq int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO file_tag_counters (branch_code, semester, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (branch_code, semester)
			DO UPDATE SET seq = file_tag_counters.seq + 1
		RETURNING seq
	`, branchCode, semester).Scan(&seq)
	if err != nil {
		return 0, "", fmt.Errorf("next tag sequence: %w", err)
	}
	tagID := fmt.Sprintf("%s_S%d_%03d", branchCode, semester, seq)

	var fileID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO files (file_tag_id, filename, filedata, subject_id, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, tagID, filename, data, subjectID, uploadedBy).Scan(&fileID)
	if err != nil {
		return 0, "", fmt.Errorf("insert file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("commit upload tx: %w", err)
	}
	return fileID, tagID, nil
}

func (s *PostgresStore) ListVisibleFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.file_tag_id, f.filename, s.id, s.name, s.course_code,
		       b.branch_name, s.semester, g.group_name, f.uploaded_by, f.upload_time
		FROM files f
		JOIN subjects s ON f.subject_id = s.id
		JOIN branches b ON s.branch_code = b.branch_code
		JOIN study_groups g ON s.group_code = g.group_code
		WHERE f.is_deleted = FALSE
		ORDER BY f.upload_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	items := make([]FileRecord, 0)
	for rows.Next() {
		var item FileRecord
		if err := rows.Scan(
			&item.ID, &item.TagID, &item.Filename, &item.SubjectID, &item.SubjectName,
			&item.CourseCode, &item.BranchName, &item.Semester, &item.GroupName,
			&item.UploadedBy, &item.UploadTime,
		); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return items, nil
}

// GetFileContent returns the stored blob for a live file. Soft-deleted
// files are indistinguishable from absent ones.
func (s *PostgresStore) GetFileContent(ctx context.Context, fileID int64) (string, []byte, error) {
	var filename string
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT filename, filedata FROM files WHERE id=$1 AND is_deleted=FALSE
	`, fileID).Scan(&filename, &data)
	if err != nil {
		return "", nil, err
	}
	return filename, data, nil
}

// SoftDeleteFile marks a file deleted. The affected-row count is the
// success signal: a second delete of the same file reports false.
func (s *PostgresStore) SoftDeleteFile(ctx context.Context, fileID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET is_deleted=TRUE, delete_time=NOW()
		WHERE id=$1 AND is_deleted=FALSE
	`, fileID)
	if err != nil {
		return false, fmt.Errorf("soft delete file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete file rows: %w", err)
	}
	return affected > 0, nil
}

// ---- tasks ----

func taskAssignmentColumns(task Task) (assignedTo, branch sql.NullString, semester sql.NullInt64) {
	if task.AssignedTo != "" {
		assignedTo = sql.NullString{String: task.AssignedTo, Valid: true}
		return
	}
	branch = sql.NullString{String: task.BranchCode, Valid: true}
	semester = sql.NullInt64{Int64: int64(task.Semester), Valid: true}
	return
}

func (s *PostgresStore) InsertTask(ctx context.Context, task Task) (int64, error) {
	assignedTo, branch, semester := taskAssignmentColumns(task)
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, priority, status, created_by, assigned_to, branch_code, semester, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, task.Title, task.Description, task.Priority, task.Status, task.CreatedBy,
		assignedTo, branch, semester, task.DueDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID int64) (Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, priority, status, created_by, assigned_to,
		       branch_code, semester, due_date, created_at, completed_at
		FROM tasks
		WHERE id=$1
	`, taskID)
	return scanTask(row)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, task Task) (bool, error) {
	assignedTo, branch, semester := taskAssignmentColumns(task)
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title=$2, description=$3, priority=$4, status=$5, assigned_to=$6,
		    branch_code=$7, semester=$8, due_date=$9
		WHERE id=$1
	`, task.ID, task.Title, task.Description, task.Priority, task.Status,
		assignedTo, branch, semester, task.DueDate)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update task rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, taskID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, taskID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) CompleteTask(ctx context.Context, taskID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status='completed', completed_at=NOW() WHERE id=$1
	`, taskID)
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete task rows: %w", err)
	}
	return affected > 0, nil
}

// ListTasks applies the visibility predicate for the viewer, then any
// optional narrowing filters, newest first. Teachers see what they
// created; students see their own tasks, tasks assigned to them
// directly, and teacher-created tasks for their cohort.
func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	query := `
		SELECT id, title, description, priority, status, created_by, assigned_to,
		       branch_code, semester, due_date, created_at, completed_at
		FROM tasks
		WHERE 1=1`
	args := []any{}
	argN := 1

	next := func(value any) string {
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", argN)
		argN++
		return placeholder
	}

	if filter.ViewerRole == RoleStudent {
		email := next(filter.ViewerEmail)
		branch := next(filter.ViewerBranch)
		semester := next(filter.ViewerSemester)
		query += fmt.Sprintf(`
		AND (created_by = %s
			OR assigned_to = %s
			OR (branch_code = %s AND semester = %s
				AND EXISTS (SELECT 1 FROM users u WHERE u.email = tasks.created_by AND u.role = 'teacher')))`,
			email, email, branch, semester)
	} else {
		query += fmt.Sprintf(` AND created_by = %s`, next(filter.ViewerEmail))
	}

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = %s`, next(filter.Status))
	}
	if filter.Branch != "" {
		query += fmt.Sprintf(` AND branch_code = %s`, next(filter.Branch))
	}
	if filter.Semester != 0 {
		query += fmt.Sprintf(` AND semester = %s`, next(filter.Semester))
	}
	if filter.Keyword != "" {
		pattern := next("%" + filter.Keyword + "%")
		query += fmt.Sprintf(`
		AND (title ILIKE %s OR description ILIKE %s OR priority ILIKE %s OR status ILIKE %s)`,
			pattern, pattern, pattern, pattern)
	}
	if !filter.DueFrom.IsZero() {
		query += fmt.Sprintf(` AND due_date >= %s`, next(filter.DueFrom))
	}
	if !filter.DueTo.IsZero() {
		query += fmt.Sprintf(` AND due_date < %s`, next(filter.DueTo))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var assignedTo, branch sql.NullString
	var semester sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Priority, &task.Status,
		&task.CreatedBy, &assignedTo, &branch, &semester, &task.DueDate,
		&task.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	task.AssignedTo = assignedTo.String
	task.BranchCode = branch.String
	task.Semester = int(semester.Int64)
	if completedAt.Valid {
		completed := completedAt.Time
		task.CompletedAt = &completed
	}
	return task, nil
}

// ---- refresh sessions (Postgres fallback when Redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, email string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, email, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET email=EXCLUDED.email, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, email, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// LookupRefreshSession returns the email behind a live refresh token
// hash. Expired and revoked sessions report sql.ErrNoRows.
func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		SELECT email
		FROM refresh_sessions
		WHERE token_hash = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
	`, tokenHash).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
