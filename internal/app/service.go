package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"studysync/api/internal/accounts"
	"studysync/api/internal/auth"
	"studysync/api/internal/config"
	"studysync/api/internal/files"
	"studysync/api/internal/policy"
	"studysync/api/internal/search"
	"studysync/api/internal/store"
	"studysync/api/internal/tasks"
	"studysync/api/internal/util"
)

// Session is an authenticated caller. Branch and Semester are zero for
// teachers.
type Session struct {
	Token        string
	RefreshToken string
	Email        string
	Role         string
	Branch       string
	Semester     int
	JTI          string
	ExpiresAt    time.Time
}

// Viewer converts a session into the shape the policy layer works on.
func (s Session) Viewer() policy.Viewer {
	return policy.Viewer{Email: s.Email, Role: s.Role, Branch: s.Branch, Semester: s.Semester}
}

// dataStore is the slice of the Postgres store the orchestration layer
// touches directly. Everything else goes through the domain services.
type dataStore interface {
	GetAccount(ctx context.Context, email string) (store.Account, error)
	ListBranches(ctx context.Context) ([]store.Branch, error)
	ListStudyGroups(ctx context.Context) ([]store.StudyGroup, error)
	EnsureBranch(ctx context.Context, branch store.Branch) error
	EnsureStudyGroup(ctx context.Context, group store.StudyGroup) error
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens, hashed. Redis in production, the
// Postgres table when Redis is not configured.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, email string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	data     dataStore
	sessions sessionStore
	accounts *accounts.Service
	files    *files.Service
	tasks    *tasks.Service
	search   *search.Service
}

func New(cfg config.Config, data dataStore, sessions sessionStore,
	accountsSvc *accounts.Service, filesSvc *files.Service, tasksSvc *tasks.Service,
	searchSvc *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		data:     data,
		sessions: sessions,
		accounts: accountsSvc,
		files:    filesSvc,
		tasks:    tasksSvc,
		search:   searchSvc,
	}
}

// Seed data matching the institution's current intake. EnsureBranch is
// idempotent, so Bootstrap can run on every start.
var seedBranches = []store.Branch{
	{Code: "CS", Name: "Computer Science", Active: true},
	{Code: "EC", Name: "Electronics", Active: true},
	{Code: "ME", Name: "Mechanical", Active: true},
	{Code: "CE", Name: "Civil", Active: true},
	{Code: "EE", Name: "Electrical", Active: true},
}

var seedGroups = []store.StudyGroup{
	{Code: "GA", Name: "Group A", Active: true},
	{Code: "GB", Name: "Group B", Active: true},
}

func (s *Service) Bootstrap(ctx context.Context) error {
	for _, branch := range seedBranches {
		if err := s.data.EnsureBranch(ctx, branch); err != nil {
			return err
		}
	}
	for _, group := range seedGroups {
		if err := s.data.EnsureStudyGroup(ctx, group); err != nil {
			return err
		}
	}
	if s.search != nil {
		s.search.ReindexAllFromDB(ctx)
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.data.Ping(ctx)
}

// ---- accounts and sessions ----

func (s *Service) Register(ctx context.Context, req accounts.RegisterRequest) (store.Account, error) {
	return s.accounts.Register(ctx, req)
}

func (s *Service) Login(ctx context.Context, email, password, role string) (Session, error) {
	account, err := s.accounts.Authenticate(ctx, email, password, role)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, account)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	email, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	account, err := s.data.GetAccount(ctx, email)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, account)
}

func (s *Service) issueSession(ctx context.Context, account store.Account) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:      account.Email,
		Role:     account.Role,
		Branch:   account.BranchCode,
		Semester: account.Semester,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), account.Email, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		Email:        account.Email,
		Role:         account.Role,
		Branch:       account.BranchCode,
		Semester:     account.Semester,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token and reloads the account,
// so role or cohort changes take effect without waiting for expiry.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	account, err := s.data.GetAccount(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		Email:     account.Email,
		Role:      account.Role,
		Branch:    account.BranchCode,
		Semester:  account.Semester,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ---- reference data ----

func (s *Service) ListBranches(ctx context.Context) ([]store.Branch, error) {
	return s.data.ListBranches(ctx)
}

func (s *Service) ListStudyGroups(ctx context.Context) ([]store.StudyGroup, error) {
	return s.data.ListStudyGroups(ctx)
}

// ---- files ----

func (s *Service) UploadFile(ctx context.Context, session Session, req files.UploadRequest) (files.UploadResult, error) {
	result, err := s.files.Upload(ctx, session.Viewer(), req)
	if errors.Is(err, files.ErrMissingFields) {
		return files.UploadResult{}, domainError(http.StatusBadRequest, "INVALID_UPLOAD",
			"Missing or invalid upload fields", missingUploadFields(req))
	}
	if err != nil {
		return files.UploadResult{}, err
	}
	if s.search != nil {
		s.search.IndexMaterial(search.MaterialRecord{
			ID:       strconv.FormatInt(result.FileID, 10),
			TagID:    result.TagID,
			Filename: req.Filename,
			Subject:  req.SubjectName, CourseCode: req.CourseCode,
			Branch: req.BranchName, Semester: req.Semester,
		})
	}
	return result, nil
}

// missingUploadFields names the form fields a rejected upload left
// blank or out of range, for the error payload.
func missingUploadFields(req files.UploadRequest) []string {
	var fields []string
	if req.SubjectName == "" {
		fields = append(fields, "subject")
	}
	if req.CourseCode == "" {
		fields = append(fields, "courseCode")
	}
	if req.BranchName == "" {
		fields = append(fields, "branch")
	}
	if req.GroupName == "" {
		fields = append(fields, "group")
	}
	if req.Semester < 1 || req.Semester > 8 {
		fields = append(fields, "semester")
	}
	return fields
}

func (s *Service) ListFiles(ctx context.Context, session Session) ([]store.FileRecord, error) {
	return s.files.ListVisible(ctx, session.Viewer())
}

func (s *Service) FileTree(ctx context.Context, session Session) ([]*files.TreeNode, error) {
	return s.files.Tree(ctx, session.Viewer())
}

func (s *Service) FileContent(ctx context.Context, session Session, fileID int64) (string, []byte, error) {
	return s.files.Content(ctx, session.Viewer(), fileID)
}

func (s *Service) DeleteFile(ctx context.Context, session Session, fileID int64) error {
	if err := s.files.SoftDelete(ctx, session.Viewer(), fileID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteMaterial(strconv.FormatInt(fileID, 10))
	}
	return nil
}

// ---- tasks ----

func (s *Service) CreateTask(ctx context.Context, session Session, req tasks.CreateRequest) (store.Task, error) {
	task, err := s.tasks.Create(ctx, session.Viewer(), req)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(ctx, task)
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, session Session, taskID int64) (store.Task, error) {
	return s.tasks.Get(ctx, session.Viewer(), taskID)
}

func (s *Service) UpdateTask(ctx context.Context, session Session, taskID int64, req tasks.UpdateRequest) (store.Task, error) {
	task, err := s.tasks.Update(ctx, session.Viewer(), taskID, req)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(ctx, task)
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, session Session, taskID int64) error {
	if err := s.tasks.Delete(ctx, session.Viewer(), taskID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteTask(strconv.FormatInt(taskID, 10))
	}
	return nil
}

func (s *Service) CompleteTask(ctx context.Context, session Session, taskID int64) (store.Task, error) {
	task, err := s.tasks.MarkComplete(ctx, session.Viewer(), taskID)
	if err != nil {
		return store.Task{}, err
	}
	s.indexTask(ctx, task)
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, session Session, req tasks.ListRequest) ([]store.Task, error) {
	return s.tasks.List(ctx, session.Viewer(), req)
}

func (s *Service) Calendar(ctx context.Context, session Session, year int, month time.Month) (tasks.Calendar, error) {
	return s.tasks.CalendarMonth(ctx, session.Viewer(), year, month)
}

// SearchTasks answers the task search endpoint through the store-level
// keyword filter, keeping results exactly in visibility scope.
func (s *Service) SearchTasks(ctx context.Context, session Session, keyword string) ([]store.Task, error) {
	return s.tasks.List(ctx, session.Viewer(), tasks.ListRequest{Keyword: keyword})
}

// SearchAll runs the combined task and material search via the search
// facade (Meilisearch when healthy, SQL otherwise).
func (s *Service) SearchAll(ctx context.Context, session Session, q search.Query) search.Response {
	q.Viewer = session.Viewer()
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// indexTask mirrors a task mutation into the search index.
func (s *Service) indexTask(ctx context.Context, task store.Task) {
	if s.search == nil {
		return
	}
	creatorRole := ""
	if account, err := s.data.GetAccount(ctx, task.CreatedBy); err == nil {
		creatorRole = account.Role
	}
	s.search.IndexTask(search.TaskRecord{
		ID:          strconv.FormatInt(task.ID, 10),
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		CreatedBy:   task.CreatedBy,
		AssignedTo:  task.AssignedTo,
		Branch:      task.BranchCode,
		Semester:    task.Semester,
		CreatorRole: creatorRole,
	})
}
