// Package files manages PDF study materials stored as database blobs,
// plus the hierarchy tree the portal browses them through.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studysync/api/internal/policy"
	"studysync/api/internal/store"
)

var (
	ErrForbidden     = errors.New("not allowed")
	ErrFileNotFound  = errors.New("file not found")
	ErrNotPDF        = errors.New("only PDF files are accepted")
	ErrMissingFields = errors.New("subject, course code, branch, group and semester are required")
)

// FileStore is the storage surface the service needs.
type FileStore interface {
	CreateFile(ctx context.Context, subjectName, courseCode, branchName, groupName string, semester int, filename string, data []byte, uploadedBy string) (int64, string, error)
	ListVisibleFiles(ctx context.Context) ([]store.FileRecord, error)
	GetFileContent(ctx context.Context, fileID int64) (string, []byte, error)
	SoftDeleteFile(ctx context.Context, fileID int64) (bool, error)
}

type Service struct {
	store FileStore
}

func NewService(fileStore FileStore) *Service {
	return &Service{store: fileStore}
}

type UploadRequest struct {
	SubjectName string
	CourseCode  string
	BranchName  string
	GroupName   string
	Semester    int
	Filename    string
	Data        []byte
}

type UploadResult struct {
	FileID int64
	TagID  string
}

// Upload stores a material. Teacher only. The store runs the whole
// thing in one transaction, so a failed step leaves nothing behind.
func (s *Service) Upload(ctx context.Context, viewer policy.Viewer, req UploadRequest) (UploadResult, error) {
	if !policy.CanUploadFile(viewer) {
		return UploadResult{}, ErrForbidden
	}
	if req.SubjectName == "" || req.CourseCode == "" || req.BranchName == "" ||
		req.GroupName == "" || req.Semester < 1 || req.Semester > 8 {
		return UploadResult{}, ErrMissingFields
	}
	if !strings.EqualFold(filepath.Ext(req.Filename), ".pdf") {
		return UploadResult{}, ErrNotPDF
	}
	if len(req.Data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty file", ErrNotPDF)
	}

	fileID, tagID, err := s.store.CreateFile(ctx, req.SubjectName, req.CourseCode,
		req.BranchName, req.GroupName, req.Semester, req.Filename, req.Data, viewer.Email)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{FileID: fileID, TagID: tagID}, nil
}

// ListVisible returns every live material, newest upload first.
func (s *Service) ListVisible(ctx context.Context, viewer policy.Viewer) ([]store.FileRecord, error) {
	if !policy.CanViewFile(viewer) {
		return nil, ErrForbidden
	}
	return s.store.ListVisibleFiles(ctx)
}

// View materializes a file into the OS temp directory and returns the
// path, for handing to an external PDF viewer.
func (s *Service) View(ctx context.Context, viewer policy.Viewer, fileID int64) (string, error) {
	filename, data, err := s.content(ctx, viewer, fileID)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "studysync_*_"+filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), nil
}

// Download writes a file's content to destPath. The stored filename is
// appended when destPath is a directory.
func (s *Service) Download(ctx context.Context, viewer policy.Viewer, fileID int64, destPath string) (string, error) {
	filename, data, err := s.content(ctx, viewer, fileID)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		destPath = filepath.Join(destPath, filepath.Base(filename))
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write download: %w", err)
	}
	return destPath, nil
}

// Content returns a file's name and raw bytes for streaming.
func (s *Service) Content(ctx context.Context, viewer policy.Viewer, fileID int64) (string, []byte, error) {
	return s.content(ctx, viewer, fileID)
}

func (s *Service) content(ctx context.Context, viewer policy.Viewer, fileID int64) (string, []byte, error) {
	if !policy.CanViewFile(viewer) {
		return "", nil, ErrForbidden
	}
	filename, data, err := s.store.GetFileContent(ctx, fileID)
	if err != nil {
		if isNoRows(err) {
			return "", nil, ErrFileNotFound
		}
		return "", nil, fmt.Errorf("load file %d: %w", fileID, err)
	}
	return filename, data, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// SoftDelete hides a material. A file already deleted reports not
// found, so a double delete cannot look like success.
func (s *Service) SoftDelete(ctx context.Context, viewer policy.Viewer, fileID int64) error {
	if !policy.CanDeleteFile(viewer) {
		return ErrForbidden
	}
	deleted, err := s.store.SoftDeleteFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrFileNotFound
	}
	return nil
}

// Tree returns the group / semester+branch / subject hierarchy over
// the visible materials.
func (s *Service) Tree(ctx context.Context, viewer policy.Viewer) ([]*TreeNode, error) {
	records, err := s.ListVisible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return BuildTree(records), nil
}
