package files

import (
	"fmt"
	"sort"

	"studysync/api/internal/store"
)

// TreeNode is one level of the material browser: study group at the
// top, then "semester + branch", then subject, with the subject's
// files as leaves.
type TreeNode struct {
	Label    string      `json:"label"`
	Children []*TreeNode `json:"children,omitempty"`
	Files    []TreeFile  `json:"files,omitempty"`
}

type TreeFile struct {
	ID       int64  `json:"id"`
	TagID    string `json:"tagId"`
	Filename string `json:"filename"`
}

// BuildTree folds the flat visible-file listing into the hierarchy.
// Nodes are cached by composite keys so every row lands under the same
// group / semester+branch / subject node regardless of input order.
func BuildTree(records []store.FileRecord) []*TreeNode {
	groups := map[string]*TreeNode{}
	cohorts := map[string]*TreeNode{}
	subjects := map[string]*TreeNode{}
	var roots []*TreeNode

	for _, rec := range records {
		group, ok := groups[rec.GroupName]
		if !ok {
			group = &TreeNode{Label: rec.GroupName}
			groups[rec.GroupName] = group
			roots = append(roots, group)
		}

		cohortKey := fmt.Sprintf("%s|%d|%s", rec.GroupName, rec.Semester, rec.BranchName)
		cohort, ok := cohorts[cohortKey]
		if !ok {
			cohort = &TreeNode{Label: fmt.Sprintf("Semester %d - %s", rec.Semester, rec.BranchName)}
			cohorts[cohortKey] = cohort
			group.Children = append(group.Children, cohort)
		}

		subjectKey := fmt.Sprintf("%s|%d", cohortKey, rec.SubjectID)
		subject, ok := subjects[subjectKey]
		if !ok {
			subject = &TreeNode{Label: fmt.Sprintf("%s (%s)", rec.SubjectName, rec.CourseCode)}
			subjects[subjectKey] = subject
			cohort.Children = append(cohort.Children, subject)
		}

		subject.Files = append(subject.Files, TreeFile{
			ID:       rec.ID,
			TagID:    rec.TagID,
			Filename: rec.Filename,
		})
	}

	sortTree(roots)
	return roots
}

func sortTree(nodes []*TreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })
	for _, node := range nodes {
		sortTree(node.Children)
	}
}
