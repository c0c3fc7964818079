// Package policy is the single place where role and ownership checks
// live. Services consult it before touching the store; handlers never
// decide access on their own.
package policy

import "studysync/api/internal/store"

// Viewer identifies the authenticated account a check runs for. Branch
// and Semester are zero for teachers.
type Viewer struct {
	Email    string
	Role     string
	Branch   string
	Semester int
}

func IsTeacher(v Viewer) bool {
	return v.Role == store.RoleTeacher
}

// Materials: every authenticated account can browse and download, only
// teachers can upload or delete.

func CanUploadFile(v Viewer) bool {
	return IsTeacher(v)
}

func CanViewFile(v Viewer) bool {
	return v.Email != ""
}

func CanDeleteFile(v Viewer) bool {
	return IsTeacher(v)
}

// Tasks: anyone can create. Teachers edit and delete any task; a
// student edits only tasks they created and never deletes.

func CanCreateTask(v Viewer) bool {
	return v.Email != ""
}

// CanViewTask decides single-task access. creatorIsTeacher is resolved
// by the caller; cohort tasks are visible to a student only when a
// teacher created them.
func CanViewTask(v Viewer, task store.Task, creatorIsTeacher bool) bool {
	if IsTeacher(v) {
		return task.CreatedBy == v.Email
	}
	if task.CreatedBy == v.Email || task.AssignedTo == v.Email {
		return true
	}
	return creatorIsTeacher && task.BranchCode == v.Branch && task.Semester == v.Semester
}

func CanEditTask(v Viewer, task store.Task) bool {
	return IsTeacher(v) || task.CreatedBy == v.Email
}

func CanDeleteTask(v Viewer, task store.Task) bool {
	return IsTeacher(v)
}

// CanAssignCohort gates cohort-wide assignment: students may only
// create tasks for themselves.
func CanAssignCohort(v Viewer) bool {
	return IsTeacher(v)
}
