// Package accounts provides registration and email/password
// authentication for the portal's two roles.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"studysync/api/internal/store"
)

var (
	ErrInvalidEmailFormat = errors.New("email does not match the required format for the role")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrRoleMismatch       = errors.New("account registered under a different role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCohortRequired     = errors.New("students must provide branch and semester")
	ErrCohortNotAllowed   = errors.New("teachers must not provide branch or semester")
)

// Institutional address shapes. Teachers sign up with a plain name
// local part, students with their admission number (two digits, branch
// letters, roll number).
var (
	teacherEmailPattern = regexp.MustCompile(`^[a-zA-Z]+@mgits\.ac\.in$`)
	studentEmailPattern = regexp.MustCompile(`^\d{2}[a-z]{2}\d{3}@mgits\.ac\.in$`)
)

// AccountStore is the storage surface the service needs.
type AccountStore interface {
	GetAccount(ctx context.Context, email string) (store.Account, error)
	CreateAccount(ctx context.Context, account store.Account) error
}

type Service struct {
	store AccountStore
}

func NewService(accountStore AccountStore) *Service {
	return &Service{store: accountStore}
}

// ValidateEmailFormat checks an address against the shape required for
// the claimed role.
func ValidateEmailFormat(email, role string) bool {
	switch role {
	case store.RoleTeacher:
		return teacherEmailPattern.MatchString(email)
	case store.RoleStudent:
		return studentEmailPattern.MatchString(email)
	default:
		return false
	}
}

type RegisterRequest struct {
	Email    string
	Password string
	Role     string
	Branch   string
	Semester int
}

// Register creates a new account. The duplicate check runs before the
// insert so the caller gets a clean error; the unique constraint still
// backstops concurrent registrations.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.Account, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !ValidateEmailFormat(email, req.Role) {
		return store.Account{}, ErrInvalidEmailFormat
	}
	if req.Password == "" {
		return store.Account{}, ErrInvalidCredentials
	}

	switch req.Role {
	case store.RoleStudent:
		if req.Branch == "" || req.Semester < 1 || req.Semester > 8 {
			return store.Account{}, ErrCohortRequired
		}
	case store.RoleTeacher:
		if req.Branch != "" || req.Semester != 0 {
			return store.Account{}, ErrCohortNotAllowed
		}
	}

	if _, err := s.store.GetAccount(ctx, email); err == nil {
		return store.Account{}, ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Account{}, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := store.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		BranchCode:   req.Branch,
		Semester:     req.Semester,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return store.Account{}, ErrDuplicateEmail
		}
		return store.Account{}, err
	}
	return account, nil
}

// Authenticate verifies credentials for a claimed role. An account
// stored under the other role fails with ErrRoleMismatch rather than a
// generic credentials error, matching the portal's login flow where
// the role is chosen up front.
func (s *Service) Authenticate(ctx context.Context, email, password, role string) (store.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !ValidateEmailFormat(email, role) {
		return store.Account{}, ErrInvalidEmailFormat
	}

	account, err := s.store.GetAccount(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.Account{}, fmt.Errorf("load account: %w", err)
	}

	if account.Role != role {
		return store.Account{}, ErrRoleMismatch
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return store.Account{}, ErrInvalidCredentials
	}
	return account, nil
}
