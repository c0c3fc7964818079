// Package tasks manages assignments and personal to-dos. A task is
// aimed either at one account or at a whole branch+semester cohort,
// never both.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"studysync/api/internal/policy"
	"studysync/api/internal/store"
)

var (
	ErrForbidden     = errors.New("not allowed")
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidTask   = errors.New("title, description and due date are required")
	ErrBadPriority   = errors.New("priority must be HIGH, MEDIUM or LOW")
	ErrBadStatus     = errors.New("status must be pending, in_progress or completed")
	ErrBadAssignment = errors.New("assign either one email or a branch and semester")
)

const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"

	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// TaskStore is the storage surface the service needs.
type TaskStore interface {
	InsertTask(ctx context.Context, task store.Task) (int64, error)
	GetTask(ctx context.Context, taskID int64) (store.Task, error)
	UpdateTask(ctx context.Context, task store.Task) (bool, error)
	DeleteTask(ctx context.Context, taskID int64) (bool, error)
	CompleteTask(ctx context.Context, taskID int64) (bool, error)
	ListTasks(ctx context.Context, filter store.TaskFilter) ([]store.Task, error)
}

// AccountGetter resolves the role of a task's creator for visibility
// checks on single-task reads.
type AccountGetter interface {
	GetAccount(ctx context.Context, email string) (store.Account, error)
}

type Service struct {
	store    TaskStore
	accounts AccountGetter
}

func NewService(taskStore TaskStore, accounts AccountGetter) *Service {
	return &Service{store: taskStore, accounts: accounts}
}

type CreateRequest struct {
	Title       string
	Description string
	Priority    string
	DueDate     time.Time

	// Assignment, exactly one form. Students may leave both empty; the
	// task then targets themselves.
	AssignedTo string
	Branch     string
	Semester   int
}

func (s *Service) Create(ctx context.Context, viewer policy.Viewer, req CreateRequest) (store.Task, error) {
	if !policy.CanCreateTask(viewer) {
		return store.Task{}, ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || req.DueDate.IsZero() {
		return store.Task{}, ErrInvalidTask
	}

	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return store.Task{}, err
	}

	task := store.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Status:      StatusPending,
		CreatedBy:   viewer.Email,
		DueDate:     req.DueDate,
	}
	if err := applyAssignment(&task, viewer, req.AssignedTo, req.Branch, req.Semester); err != nil {
		return store.Task{}, err
	}

	id, err := s.store.InsertTask(ctx, task)
	if err != nil {
		return store.Task{}, err
	}
	task.ID = id
	return task, nil
}

// applyAssignment fills the task's assignment variant. Teachers choose
// one email or one cohort; students always get themselves.
func applyAssignment(task *store.Task, viewer policy.Viewer, assignedTo, branch string, semester int) error {
	if !policy.CanAssignCohort(viewer) {
		if (assignedTo != "" && assignedTo != viewer.Email) || branch != "" || semester != 0 {
			return ErrBadAssignment
		}
		task.AssignedTo = viewer.Email
		task.BranchCode = ""
		task.Semester = 0
		return nil
	}

	hasIndividual := assignedTo != ""
	hasCohort := branch != "" || semester != 0
	switch {
	case hasIndividual && !hasCohort:
		task.AssignedTo = assignedTo
		task.BranchCode = ""
		task.Semester = 0
	case hasCohort && !hasIndividual:
		if branch == "" || semester < 1 || semester > 8 {
			return ErrBadAssignment
		}
		task.AssignedTo = ""
		task.BranchCode = branch
		task.Semester = semester
	default:
		return ErrBadAssignment
	}
	return nil
}

// Get returns a single task if the viewer may see it.
func (s *Service) Get(ctx context.Context, viewer policy.Viewer, taskID int64) (store.Task, error) {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	creatorIsTeacher, err := s.creatorIsTeacher(ctx, viewer, task)
	if err != nil {
		return store.Task{}, err
	}
	if !policy.CanViewTask(viewer, task, creatorIsTeacher) {
		return store.Task{}, ErrForbidden
	}
	return task, nil
}

type UpdateRequest struct {
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     time.Time

	AssignedTo string
	Branch     string
	Semester   int
}

func (s *Service) Update(ctx context.Context, viewer policy.Viewer, taskID int64, req UpdateRequest) (store.Task, error) {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	if !policy.CanEditTask(viewer, task) {
		return store.Task{}, ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || req.DueDate.IsZero() {
		return store.Task{}, ErrInvalidTask
	}

	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return store.Task{}, err
	}
	status, err := normalizeStatus(req.Status, task.Status)
	if err != nil {
		return store.Task{}, err
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = strings.TrimSpace(req.Description)
	task.Priority = priority
	task.Status = status
	task.DueDate = req.DueDate
	if err := applyAssignment(&task, viewer, req.AssignedTo, req.Branch, req.Semester); err != nil {
		return store.Task{}, err
	}

	updated, err := s.store.UpdateTask(ctx, task)
	if err != nil {
		return store.Task{}, err
	}
	if !updated {
		return store.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (s *Service) Delete(ctx context.Context, viewer policy.Viewer, taskID int64) error {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(viewer, task) {
		return ErrForbidden
	}
	deleted, err := s.store.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

// MarkComplete stamps a task completed. Any authenticated account may
// complete any task it can address by id; see DESIGN.md for why no
// ownership check runs here.
func (s *Service) MarkComplete(ctx context.Context, viewer policy.Viewer, taskID int64) (store.Task, error) {
	if viewer.Email == "" {
		return store.Task{}, ErrForbidden
	}
	completed, err := s.store.CompleteTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	if !completed {
		return store.Task{}, ErrTaskNotFound
	}
	return s.load(ctx, taskID)
}

type ListRequest struct {
	Status   string
	Branch   string
	Semester int
	Keyword  string
}

// List returns the viewer's visible tasks, newest first. Students are
// scoped by the visibility predicate regardless of the branch and
// semester filters they pass.
func (s *Service) List(ctx context.Context, viewer policy.Viewer, req ListRequest) ([]store.Task, error) {
	if viewer.Email == "" {
		return nil, ErrForbidden
	}
	if req.Status != "" {
		if _, err := normalizeStatus(req.Status, ""); err != nil {
			return nil, err
		}
	}
	filter := store.TaskFilter{
		ViewerEmail:    viewer.Email,
		ViewerRole:     viewer.Role,
		ViewerBranch:   viewer.Branch,
		ViewerSemester: viewer.Semester,
		Status:         req.Status,
		Keyword:        strings.TrimSpace(req.Keyword),
	}
	if policy.IsTeacher(viewer) {
		filter.Branch = req.Branch
		filter.Semester = req.Semester
	}
	return s.store.ListTasks(ctx, filter)
}

// CalendarDay groups a day's due tasks for the monthly view.
type CalendarDay struct {
	Day   int          `json:"day"`
	Tasks []store.Task `json:"tasks"`
}

type Calendar struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// CalendarMonth buckets the viewer's visible tasks by due day. Days
// without tasks are omitted.
func (s *Service) CalendarMonth(ctx context.Context, viewer policy.Viewer, year int, month time.Month) (Calendar, error) {
	if viewer.Email == "" {
		return Calendar{}, ErrForbidden
	}
	if month < time.January || month > time.December || year < 1 {
		return Calendar{}, fmt.Errorf("%w: bad year or month", ErrInvalidTask)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	filter := store.TaskFilter{
		ViewerEmail:    viewer.Email,
		ViewerRole:     viewer.Role,
		ViewerBranch:   viewer.Branch,
		ViewerSemester: viewer.Semester,
		DueFrom:        from,
		DueTo:          from.AddDate(0, 1, 0),
	}
	items, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return Calendar{}, err
	}

	byDay := map[int][]store.Task{}
	for _, task := range items {
		day := task.DueDate.Day()
		byDay[day] = append(byDay[day], task)
	}
	days := make([]CalendarDay, 0, len(byDay))
	for day, dayTasks := range byDay {
		days = append(days, CalendarDay{Day: day, Tasks: dayTasks})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	return Calendar{Year: year, Month: month, Days: days}, nil
}

func (s *Service) load(ctx context.Context, taskID int64) (store.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return store.Task{}, fmt.Errorf("load task %d: %w", taskID, err)
	}
	return task, nil
}

func (s *Service) creatorIsTeacher(ctx context.Context, viewer policy.Viewer, task store.Task) (bool, error) {
	if task.CreatedBy == viewer.Email {
		return policy.IsTeacher(viewer), nil
	}
	creator, err := s.accounts.GetAccount(ctx, task.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load task creator: %w", err)
	}
	return creator.Role == store.RoleTeacher, nil
}

func normalizePriority(priority string) (string, error) {
	if priority == "" {
		return PriorityMedium, nil
	}
	switch strings.ToUpper(priority) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return strings.ToUpper(priority), nil
	default:
		return "", ErrBadPriority
	}
}

func normalizeStatus(status, fallback string) (string, error) {
	if status == "" {
		return fallback, nil
	}
	switch strings.ToLower(status) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return strings.ToLower(status), nil
	default:
		return "", ErrBadStatus
	}
}
