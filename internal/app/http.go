package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studysync/api/internal/accounts"
	"studysync/api/internal/auth"
	"studysync/api/internal/files"
	"studysync/api/internal/search"
	"studysync/api/internal/session"
	"studysync/api/internal/store"
	"studysync/api/internal/tasks"
)

// maxUploadBytes caps multipart uploads; blobs live in Postgres, so
// oversized files would bloat the table fast.
const maxUploadBytes = 25 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		sess, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"email":         sess.Email,
			"role":          sess.Role,
			"branch":        sess.Branch,
			"semester":      sess.Semester,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(sess))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		_ = s.service.Logout(r.Context(), body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Reference data, needed by the registration form before login.
	if r.Method == http.MethodGet && r.URL.Path == "/api/branches" {
		branches, err := s.service.ListBranches(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"branches": branchesPayload(branches)})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/groups" {
		groups, err := s.service.ListStudyGroups(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groupsPayload(groups)})
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch parts[1] {
	case "files":
		s.handleFiles(w, r, sess, parts[2:])
	case "tasks":
		s.handleTasks(w, r, sess, parts[2:])
	case "calendar":
		s.handleCalendar(w, r, sess, parts[2:])
	case "search":
		s.handleSearch(w, r, sess)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Branch   string `json:"branch"`
		Semester int    `json:"semester"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	account, err := s.service.Register(r.Context(), accounts.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Branch:   body.Branch,
		Semester: body.Semester,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"email":    account.Email,
		"role":     account.Role,
		"branch":   account.BranchCode,
		"semester": account.Semester,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Login(r.Context(), body.Email, body.Password, body.Role)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *HTTPServer) handleFiles(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		records, err := s.service.ListFiles(r.Context(), sess)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": filesPayload(records)})

	case len(parts) == 0 && r.Method == http.MethodPost:
		s.handleFileUpload(w, r, sess)

	case len(parts) == 1 && parts[0] == "tree" && r.Method == http.MethodGet:
		tree, err := s.service.FileTree(r.Context(), sess)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tree": tree})

	case len(parts) == 2 && parts[1] == "download" && r.Method == http.MethodGet:
		fileID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid file id", nil)
			return
		}
		filename, data, err := s.service.FileContent(r.Context(), sess, fileID)
		if err != nil {
			s.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		fileID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid file id", nil)
			return
		}
		if err := s.service.DeleteFile(r.Context(), sess, fileID); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleFileUpload(w http.ResponseWriter, r *http.Request, sess Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Invalid multipart upload", nil)
		return
	}

	semester, _ := strconv.Atoi(r.FormValue("semester"))

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Missing file part", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Unreadable file part", nil)
		return
	}

	result, err := s.service.UploadFile(r.Context(), sess, files.UploadRequest{
		SubjectName: r.FormValue("subject"),
		CourseCode:  r.FormValue("courseCode"),
		BranchName:  r.FormValue("branch"),
		GroupName:   r.FormValue("group"),
		Semester:    semester,
		Filename:    header.Filename,
		Data:        data,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"fileId": result.FileID,
		"tagId":  result.TagID,
	})
}

func (s *HTTPServer) handleTasks(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		semester, _ := strconv.Atoi(r.URL.Query().Get("semester"))
		items, err := s.service.ListTasks(r.Context(), sess, tasks.ListRequest{
			Status:   r.URL.Query().Get("status"),
			Branch:   r.URL.Query().Get("branch"),
			Semester: semester,
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasksPayload(items)})

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body taskBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		dueDate, err := body.dueDate()
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_DUE_DATE", "dueDate must be YYYY-MM-DD", nil)
			return
		}
		task, err := s.service.CreateTask(r.Context(), sess, tasks.CreateRequest{
			Title:       body.Title,
			Description: body.Description,
			Priority:    body.Priority,
			DueDate:     dueDate,
			AssignedTo:  body.AssignedTo,
			Branch:      body.Branch,
			Semester:    body.Semester,
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, taskPayload(task))

	case len(parts) == 1 && parts[0] == "search" && r.Method == http.MethodGet:
		items, err := s.service.SearchTasks(r.Context(), sess, r.URL.Query().Get("q"))
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasksPayload(items)})

	case len(parts) == 1 && r.Method == http.MethodGet:
		taskID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task id", nil)
			return
		}
		task, err := s.service.GetTask(r.Context(), sess, taskID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, taskPayload(task))

	case len(parts) == 1 && r.Method == http.MethodPut:
		taskID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task id", nil)
			return
		}
		var body taskBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		dueDate, err := body.dueDate()
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_DUE_DATE", "dueDate must be YYYY-MM-DD", nil)
			return
		}
		task, err := s.service.UpdateTask(r.Context(), sess, taskID, tasks.UpdateRequest{
			Title:       body.Title,
			Description: body.Description,
			Priority:    body.Priority,
			Status:      body.Status,
			DueDate:     dueDate,
			AssignedTo:  body.AssignedTo,
			Branch:      body.Branch,
			Semester:    body.Semester,
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, taskPayload(task))

	case len(parts) == 1 && r.Method == http.MethodDelete:
		taskID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task id", nil)
			return
		}
		if err := s.service.DeleteTask(r.Context(), sess, taskID); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPost:
		taskID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task id", nil)
			return
		}
		task, err := s.service.CompleteTask(r.Context(), sess, taskID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, taskPayload(task))

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	if len(parts) != 2 || r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CALENDAR", "Invalid year", nil)
		return
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "INVALID_CALENDAR", "Invalid month", nil)
		return
	}
	calendar, err := s.service.Calendar(r.Context(), sess, year, time.Month(month))
	if err != nil {
		s.fail(w, err)
		return
	}
	days := make([]map[string]any, 0, len(calendar.Days))
	for _, day := range calendar.Days {
		days = append(days, map[string]any{
			"day":   day.Day,
			"tasks": tasksPayload(day.Tasks),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  calendar.Year,
		"month": int(calendar.Month),
		"days":  days,
	})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, sess Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	response := s.service.SearchAll(r.Context(), sess, search.Query{
		Text:       r.URL.Query().Get("q"),
		FilterType: search.ResultType(r.URL.Query().Get("type")),
		Limit:      limit,
		Offset:     offset,
	})
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return sess, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	switch {
	case errors.Is(err, accounts.ErrInvalidEmailFormat):
		return http.StatusBadRequest, "INVALID_EMAIL", "Email does not match the required format for the role", nil
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered", nil
	case errors.Is(err, accounts.ErrRoleMismatch):
		return http.StatusForbidden, "ROLE_MISMATCH", "Account registered under a different role", nil
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	case errors.Is(err, accounts.ErrCohortRequired), errors.Is(err, accounts.ErrCohortNotAllowed):
		return http.StatusBadRequest, "INVALID_COHORT", err.Error(), nil
	case errors.Is(err, files.ErrForbidden), errors.Is(err, tasks.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "Forbidden", nil
	case errors.Is(err, files.ErrFileNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND", "File not found", nil
	case errors.Is(err, tasks.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil
	case errors.Is(err, files.ErrNotPDF), errors.Is(err, files.ErrMissingFields):
		return http.StatusBadRequest, "INVALID_UPLOAD", err.Error(), nil
	case errors.Is(err, store.ErrBranchNotFound), errors.Is(err, store.ErrGroupNotFound):
		return http.StatusBadRequest, "UNKNOWN_REFERENCE", err.Error(), nil
	case errors.Is(err, tasks.ErrInvalidTask), errors.Is(err, tasks.ErrBadPriority),
		errors.Is(err, tasks.ErrBadStatus), errors.Is(err, tasks.ErrBadAssignment):
		return http.StatusBadRequest, "INVALID_TASK", err.Error(), nil
	case errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// ---- payload shaping ----

type taskBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDateStr  string `json:"dueDate"`
	AssignedTo  string `json:"assignedTo"`
	Branch      string `json:"branch"`
	Semester    int    `json:"semester"`
}

func (b taskBody) dueDate() (time.Time, error) {
	if b.DueDateStr == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", b.DueDateStr)
}

func sessionResponse(sess Session) map[string]any {
	return map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"email":        sess.Email,
		"role":         sess.Role,
		"branch":       sess.Branch,
		"semester":     sess.Semester,
		"expiresAt":    sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func branchesPayload(branches []store.Branch) []map[string]any {
	items := make([]map[string]any, 0, len(branches))
	for _, branch := range branches {
		items = append(items, map[string]any{
			"code": branch.Code,
			"name": branch.Name,
		})
	}
	return items
}

func groupsPayload(groups []store.StudyGroup) []map[string]any {
	items := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		items = append(items, map[string]any{
			"code": group.Code,
			"name": group.Name,
		})
	}
	return items
}

func filesPayload(records []store.FileRecord) []map[string]any {
	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":         rec.ID,
			"tagId":      rec.TagID,
			"filename":   rec.Filename,
			"subject":    rec.SubjectName,
			"courseCode": rec.CourseCode,
			"branch":     rec.BranchName,
			"semester":   rec.Semester,
			"group":      rec.GroupName,
			"uploadedBy": rec.UploadedBy,
			"uploadTime": rec.UploadTime.UTC().Format(time.RFC3339),
		})
	}
	return items
}

func taskPayload(task store.Task) map[string]any {
	payload := map[string]any{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"priority":    task.Priority,
		"status":      task.Status,
		"createdBy":   task.CreatedBy,
		"dueDate":     task.DueDate.Format("2006-01-02"),
	}
	if task.AssignedTo != "" {
		payload["assignedTo"] = task.AssignedTo
	} else {
		payload["branch"] = task.BranchCode
		payload["semester"] = task.Semester
	}
	if task.CompletedAt != nil {
		payload["completedAt"] = task.CompletedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func tasksPayload(items []store.Task) []map[string]any {
	payloads := make([]map[string]any, 0, len(items))
	for _, task := range items {
		payloads = append(payloads, taskPayload(task))
	}
	return payloads
}
