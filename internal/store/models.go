package store

import (
	"errors"
	"time"
)

var (
	// ErrDuplicate signals a unique-constraint violation, e.g. registering
	// an email twice.
	ErrDuplicate = errors.New("duplicate entry")

	ErrBranchNotFound = errors.New("branch not found")
	ErrGroupNotFound  = errors.New("study group not found")
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Account is a portal user. BranchCode and Semester are set only for
// students; both are zero for teachers.
type Account struct {
	Email        string
	PasswordHash string
	Role         string
	BranchCode   string
	Semester     int
	CreatedAt    time.Time
}

type Branch struct {
	Code   string
	Name   string
	Active bool
}

type StudyGroup struct {
	Code   string
	Name   string
	Active bool
}

type Subject struct {
	ID         int64
	Name       string
	CourseCode string
	BranchCode string
	Semester   int
	GroupCode  string
	CreatedBy  string
}

// FileRecord is a visible-file listing row joined with its subject,
// branch and study group.
type FileRecord struct {
	ID          int64
	TagID       string
	Filename    string
	SubjectID   int64
	SubjectName string
	CourseCode  string
	BranchName  string
	Semester    int
	GroupName   string
	UploadedBy  string
	UploadTime  time.Time
}

// Task assignment is a tagged variant: either AssignedTo carries an
// individual email, or BranchCode+Semester name a cohort. Exactly one
// form is populated, enforced by a table check constraint.
type Task struct {
	ID          int64
	Title       string
	Description string
	Priority    string
	Status      string
	CreatedBy   string
	AssignedTo  string
	BranchCode  string
	Semester    int
	DueDate     time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// TaskFilter scopes a task listing. Viewer fields drive the visibility
// predicate; the rest narrow the result further when non-zero.
type TaskFilter struct {
	ViewerEmail    string
	ViewerRole     string
	ViewerBranch   string
	ViewerSemester int

	Status   string
	Branch   string
	Semester int
	Keyword  string

	DueFrom time.Time
	DueTo   time.Time
}
