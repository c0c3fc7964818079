package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"studysync/api/internal/accounts"
	"studysync/api/internal/config"
	"studysync/api/internal/files"
	"studysync/api/internal/store"
	"studysync/api/internal/tasks"
)

// memStore backs the whole service graph in one in-memory fake.
type memStore struct {
	accounts map[string]store.Account
	branches []store.Branch
	groups   []store.StudyGroup

	nextFileID int64
	fileSeq    map[string]int
	files      map[int64]*memFile
	subjects   map[string]int64

	nextTaskID int64
	tasks      map[int64]store.Task

	sessions map[string]memSession
}

type memFile struct {
	record  store.FileRecord
	data    []byte
	deleted bool
}

type memSession struct {
	email     string
	expiresAt time.Time
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]store.Account{},
		fileSeq:  map[string]int{},
		files:    map[int64]*memFile{},
		subjects: map[string]int64{},
		tasks:    map[int64]store.Task{},
		sessions: map[string]memSession{},
	}
}

func (m *memStore) GetAccount(_ context.Context, email string) (store.Account, error) {
	account, ok := m.accounts[email]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (m *memStore) CreateAccount(_ context.Context, account store.Account) error {
	if _, ok := m.accounts[account.Email]; ok {
		return store.ErrDuplicate
	}
	m.accounts[account.Email] = account
	return nil
}

func (m *memStore) ListBranches(_ context.Context) ([]store.Branch, error) {
	return m.branches, nil
}

func (m *memStore) ListStudyGroups(_ context.Context) ([]store.StudyGroup, error) {
	return m.groups, nil
}

func (m *memStore) EnsureBranch(_ context.Context, branch store.Branch) error {
	for _, existing := range m.branches {
		if existing.Code == branch.Code {
			return nil
		}
	}
	m.branches = append(m.branches, branch)
	return nil
}

func (m *memStore) EnsureStudyGroup(_ context.Context, group store.StudyGroup) error {
	for _, existing := range m.groups {
		if existing.Code == group.Code {
			return nil
		}
	}
	m.groups = append(m.groups, group)
	return nil
}

func (m *memStore) Ping(_ context.Context) error { return nil }

func (m *memStore) CreateFile(_ context.Context, subjectName, courseCode, branchName, groupName string, semester int, filename string, data []byte, uploadedBy string) (int64, string, error) {
	var branchCode string
	for _, branch := range m.branches {
		if branch.Name == branchName {
			branchCode = branch.Code
		}
	}
	if branchCode == "" {
		return 0, "", store.ErrBranchNotFound
	}
	var groupCode string
	for _, group := range m.groups {
		if group.Name == groupName {
			groupCode = group.Code
		}
	}
	if groupCode == "" {
		return 0, "", store.ErrGroupNotFound
	}

	subjectKey := fmt.Sprintf("%s|%s|%s|%d|%s", subjectName, courseCode, branchCode, semester, groupCode)
	subjectID, ok := m.subjects[subjectKey]
	if !ok {
		subjectID = int64(len(m.subjects) + 100)
		m.subjects[subjectKey] = subjectID
	}

	counterKey := fmt.Sprintf("%s|%d", branchCode, semester)
	m.fileSeq[counterKey]++
	tag := fmt.Sprintf("%s_S%d_%03d", branchCode, semester, m.fileSeq[counterKey])

	m.nextFileID++
	m.files[m.nextFileID] = &memFile{
		record: store.FileRecord{
			ID: m.nextFileID, TagID: tag, Filename: filename, SubjectID: subjectID,
			SubjectName: subjectName, CourseCode: courseCode, BranchName: branchName,
			Semester: semester, GroupName: groupName, UploadedBy: uploadedBy,
			UploadTime: time.Now(),
		},
		data: data,
	}
	return m.nextFileID, tag, nil
}

func (m *memStore) ListVisibleFiles(_ context.Context) ([]store.FileRecord, error) {
	var out []store.FileRecord
	for _, f := range m.files {
		if !f.deleted {
			out = append(out, f.record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTime.After(out[j].UploadTime) })
	return out, nil
}

func (m *memStore) GetFileContent(_ context.Context, fileID int64) (string, []byte, error) {
	f, ok := m.files[fileID]
	if !ok || f.deleted {
		return "", nil, sql.ErrNoRows
	}
	return f.record.Filename, f.data, nil
}

func (m *memStore) SoftDeleteFile(_ context.Context, fileID int64) (bool, error) {
	f, ok := m.files[fileID]
	if !ok || f.deleted {
		return false, nil
	}
	f.deleted = true
	return true, nil
}

func (m *memStore) InsertTask(_ context.Context, task store.Task) (int64, error) {
	m.nextTaskID++
	task.ID = m.nextTaskID
	task.CreatedAt = time.Now()
	m.tasks[task.ID] = task
	return task.ID, nil
}

func (m *memStore) GetTask(_ context.Context, taskID int64) (store.Task, error) {
	task, ok := m.tasks[taskID]
	if !ok {
		return store.Task{}, sql.ErrNoRows
	}
	return task, nil
}

func (m *memStore) UpdateTask(_ context.Context, task store.Task) (bool, error) {
	existing, ok := m.tasks[task.ID]
	if !ok {
		return false, nil
	}
	task.CreatedAt = existing.CreatedAt
	m.tasks[task.ID] = task
	return true, nil
}

func (m *memStore) DeleteTask(_ context.Context, taskID int64) (bool, error) {
	if _, ok := m.tasks[taskID]; !ok {
		return false, nil
	}
	delete(m.tasks, taskID)
	return true, nil
}

func (m *memStore) CompleteTask(_ context.Context, taskID int64) (bool, error) {
	task, ok := m.tasks[taskID]
	if !ok {
		return false, nil
	}
	now := time.Now()
	task.Status = tasks.StatusCompleted
	task.CompletedAt = &now
	m.tasks[taskID] = task
	return true, nil
}

func (m *memStore) ListTasks(_ context.Context, filter store.TaskFilter) ([]store.Task, error) {
	var out []store.Task
	for _, task := range m.tasks {
		if !m.taskVisible(task, filter) {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Branch != "" && task.BranchCode != filter.Branch {
			continue
		}
		if filter.Semester != 0 && task.Semester != filter.Semester {
			continue
		}
		if filter.Keyword != "" && !taskMatches(task, filter.Keyword) {
			continue
		}
		if !filter.DueFrom.IsZero() && task.DueDate.Before(filter.DueFrom) {
			continue
		}
		if !filter.DueTo.IsZero() && !task.DueDate.Before(filter.DueTo) {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) taskVisible(task store.Task, filter store.TaskFilter) bool {
	if filter.ViewerRole != store.RoleStudent {
		return task.CreatedBy == filter.ViewerEmail
	}
	if task.CreatedBy == filter.ViewerEmail || task.AssignedTo == filter.ViewerEmail {
		return true
	}
	creator := m.accounts[task.CreatedBy]
	return creator.Role == store.RoleTeacher &&
		task.BranchCode == filter.ViewerBranch && task.Semester == filter.ViewerSemester
}

func taskMatches(task store.Task, keyword string) bool {
	k := strings.ToLower(keyword)
	for _, field := range []string{task.Title, task.Description, task.Priority, task.Status} {
		if strings.Contains(strings.ToLower(field), k) {
			return true
		}
	}
	return false
}

func (m *memStore) SaveRefreshSession(_ context.Context, tokenHash, email string, expiresAt time.Time) error {
	m.sessions[tokenHash] = memSession{email: email, expiresAt: expiresAt}
	return nil
}

func (m *memStore) LookupRefreshSession(_ context.Context, tokenHash string) (string, error) {
	sess, ok := m.sessions[tokenHash]
	if !ok || time.Now().After(sess.expiresAt) {
		return "", sql.ErrNoRows
	}
	return sess.email, nil
}

func (m *memStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

// ---- harness ----

func newTestServer(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	cfg := config.Config{
		TokenSecret: "test-secret",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
		CORSOrigin:  "*",
	}
	mem := newMemStore()
	service := New(cfg, mem, mem,
		accounts.NewService(mem),
		files.NewService(mem),
		tasks.NewService(mem, mem),
		nil)
	if err := service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return NewHTTPServer(service, cfg.CORSOrigin).Handler(), mem
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func registerAndLogin(t *testing.T, handler http.Handler, email, password, role, branch string, semester int) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": password, "role": role, "branch": branch, "semester": semester,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": password, "role": role,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := decodeResponse(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", email)
	}
	return token
}

func uploadPDF(t *testing.T, handler http.Handler, token, subject, branch string, semester int, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("subject", subject)
	_ = writer.WriteField("courseCode", "CS501")
	_ = writer.WriteField("branch", branch)
	_ = writer.WriteField("group", "Group A")
	_ = writer.WriteField("semester", fmt.Sprintf("%d", semester))
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestHealth(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	handler, _ := newTestServer(t)

	t.Run("register and login teacher", func(t *testing.T) {
		token := registerAndLogin(t, handler, "jacob@mgits.ac.in", "hunter22", "teacher", "", 0)
		rec := doJSON(t, handler, http.MethodGet, "/api/session", token, nil)
		payload := decodeResponse(t, rec)
		if payload["authenticated"] != true || payload["role"] != "teacher" {
			t.Fatalf("unexpected session payload: %v", payload)
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]any{
			"email": "jacob@mgits.ac.in", "password": "other", "role": "teacher",
		})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
	})

	t.Run("bad email shape rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]any{
			"email": "jacob@gmail.com", "password": "hunter22", "role": "teacher",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "jacob@mgits.ac.in", "password": "wrong", "role": "teacher",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("role mismatch forbidden", func(t *testing.T) {
		// A teacher-shaped address stored as teacher, claimed as student,
		// fails format validation first; store a student and claim teacher
		// is not constructible via the API, so exercise the student path.
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]any{
			"email": "21cs042@mgits.ac.in", "password": "secret99", "role": "student",
			"branch": "CS", "semester": 5,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("register student: %d %s", rec.Code, rec.Body.String())
		}
		rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "21cs042@mgits.ac.in", "password": "secret99", "role": "teacher",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400 (format gate)", rec.Code)
		}
	})

	t.Run("protected routes need a session", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/tasks", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})
}

func TestRefreshRotation(t *testing.T) {
	handler, _ := newTestServer(t)
	registerAndLogin(t, handler, "jacob@mgits.ac.in", "hunter22", "teacher", "", 0)

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jacob@mgits.ac.in", "password": "hunter22", "role": "teacher",
	})
	refresh, _ := decodeResponse(t, rec)["refreshToken"].(string)
	if refresh == "" {
		t.Fatal("no refresh token")
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rec.Code, rec.Body.String())
	}
	next, _ := decodeResponse(t, rec)["refreshToken"].(string)
	if next == "" || next == refresh {
		t.Fatalf("refresh token not rotated")
	}

	// The old token is revoked by rotation.
	rec = doJSON(t, handler, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh: status %d, want 401", rec.Code)
	}

	// Logout revokes the live one.
	rec = doJSON(t, handler, http.MethodPost, "/api/session/logout", "", map[string]any{"refreshToken": next})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": next})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: status %d, want 401", rec.Code)
	}
}

func TestFileEndpoints(t *testing.T) {
	handler, _ := newTestServer(t)
	teacherToken := registerAndLogin(t, handler, "jacob@mgits.ac.in", "hunter22", "teacher", "", 0)
	studentToken := registerAndLogin(t, handler, "21cs042@mgits.ac.in", "secret99", "student", "CS", 5)

	t.Run("teacher uploads", func(t *testing.T) {
		rec := uploadPDF(t, handler, teacherToken, "Algorithms", "Computer Science", 5, "graphs.pdf")
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload: status %d body %s", rec.Code, rec.Body.String())
		}
		if tag := decodeResponse(t, rec)["tagId"]; tag != "CS_S5_001" {
			t.Fatalf("tag %v, want CS_S5_001", tag)
		}
	})

	t.Run("student cannot upload", func(t *testing.T) {
		rec := uploadPDF(t, handler, studentToken, "Algorithms", "Computer Science", 5, "notes.pdf")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("missing fields are named", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		_ = writer.WriteField("branch", "Computer Science")
		_ = writer.WriteField("group", "Group A")
		_ = writer.WriteField("semester", "5")
		part, err := writer.CreateFormFile("file", "notes.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write([]byte("%PDF-1.4 test"))
		_ = writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+teacherToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400 body %s", rec.Code, rec.Body.String())
		}
		payload := decodeResponse(t, rec)
		if payload["code"] != "INVALID_UPLOAD" {
			t.Fatalf("code %v, want INVALID_UPLOAD", payload["code"])
		}
		details, _ := payload["details"].([]any)
		if len(details) != 2 || details[0] != "subject" || details[1] != "courseCode" {
			t.Fatalf("details %v, want [subject courseCode]", payload["details"])
		}
	})

	t.Run("list and tree", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/files", studentToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list: status %d", rec.Code)
		}
		items, _ := decodeResponse(t, rec)["files"].([]any)
		if len(items) != 1 {
			t.Fatalf("got %d files, want 1", len(items))
		}

		rec = doJSON(t, handler, http.MethodGet, "/api/files/tree", studentToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("tree: status %d", rec.Code)
		}
	})

	t.Run("download", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/files/1/download", studentToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("download: status %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
			t.Fatalf("content type %q", got)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "graphs.pdf") {
			t.Fatalf("disposition %q", rec.Header().Get("Content-Disposition"))
		}
		if rec.Body.String() != "%PDF-1.4 test" {
			t.Fatalf("body %q", rec.Body.String())
		}
	})

	t.Run("delete rules", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodDelete, "/api/files/1", studentToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("student delete: status %d, want 403", rec.Code)
		}
		rec = doJSON(t, handler, http.MethodDelete, "/api/files/1", teacherToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("teacher delete: status %d", rec.Code)
		}
		rec = doJSON(t, handler, http.MethodDelete, "/api/files/1", teacherToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("double delete: status %d, want 404", rec.Code)
		}
	})
}

func TestTaskEndpoints(t *testing.T) {
	handler, _ := newTestServer(t)
	teacherToken := registerAndLogin(t, handler, "jacob@mgits.ac.in", "hunter22", "teacher", "", 0)
	studentToken := registerAndLogin(t, handler, "21cs042@mgits.ac.in", "secret99", "student", "CS", 5)

	t.Run("teacher creates cohort task", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/tasks", teacherToken, map[string]any{
			"title": "Assignment 3", "description": "Graph traversals",
			"dueDate": "2026-03-10", "branch": "CS", "semester": 5,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
		}
		payload := decodeResponse(t, rec)
		if payload["priority"] != "MEDIUM" || payload["status"] != "pending" {
			t.Fatalf("defaults wrong: %v", payload)
		}
	})

	t.Run("student sees cohort task", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/tasks", studentToken, nil)
		items, _ := decodeResponse(t, rec)["tasks"].([]any)
		if len(items) != 1 {
			t.Fatalf("got %d tasks, want 1", len(items))
		}
	})

	t.Run("invalid due date", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/tasks", teacherToken, map[string]any{
			"title": "x", "description": "y", "dueDate": "10-03-2026", "branch": "CS", "semester": 5,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})

	t.Run("student completes cohort task", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/tasks/1/complete", studentToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("complete: status %d body %s", rec.Code, rec.Body.String())
		}
		if status := decodeResponse(t, rec)["status"]; status != "completed" {
			t.Fatalf("status %v, want completed", status)
		}
	})

	t.Run("student cannot delete teacher task", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodDelete, "/api/tasks/1", studentToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("search", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/tasks/search?q=graph", teacherToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("search: status %d", rec.Code)
		}
		items, _ := decodeResponse(t, rec)["tasks"].([]any)
		if len(items) != 1 {
			t.Fatalf("got %d hits, want 1", len(items))
		}
	})

	t.Run("calendar", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/calendar/2026/3", teacherToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("calendar: status %d body %s", rec.Code, rec.Body.String())
		}
		days, _ := decodeResponse(t, rec)["days"].([]any)
		if len(days) != 1 {
			t.Fatalf("got %d days, want 1", len(days))
		}
		rec = doJSON(t, handler, http.MethodGet, "/api/calendar/2026/13", teacherToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("month 13: status %d, want 400", rec.Code)
		}
	})
}
