package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for a failed staff login. The message is
// deliberately the same whether the username or the password was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

// StaffMember is an authenticated staff-app user.
type StaffMember struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"` // "mover", "teamlead", "admin"
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffService provides staff lookup and credential verification.
type StaffService interface {
	// Authenticate verifies username/password and returns the staff member on
	// success, ErrBadCredentials otherwise.
	Authenticate(ctx context.Context, username, password string) (*StaffMember, error)

	// GetByID returns a staff member by primary key.
	GetByID(ctx context.Context, staffID int) (*StaffMember, error)
}

type staffService struct {
	pool *pgxpool.Pool
}

// NewStaffService constructs a StaffService backed by PostgreSQL.
func NewStaffService(pool *pgxpool.Pool) StaffService {
	return &staffService{pool: pool}
}

// HashPassword returns the bcrypt hash stored in staff.password_hash.
// Seed tooling and the verify-db seeder use the same function.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *staffService) Authenticate(ctx context.Context, username, password string) (*StaffMember, error) {
	m := &StaffMember{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, role, password_hash, is_active, created_at
		FROM staff
		WHERE username = $1 AND is_active = true
		LIMIT 1`,
		username,
	).Scan(&m.ID, &m.Username, &m.DisplayName, &m.Role, &m.PasswordHash, &m.IsActive, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to look up staff %q: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return m, nil
}

func (s *staffService) GetByID(ctx context.Context, staffID int) (*StaffMember, error) {
	m := &StaffMember{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, role, password_hash, is_active, created_at
		FROM staff
		WHERE id = $1`,
		staffID,
	).Scan(&m.ID, &m.Username, &m.DisplayName, &m.Role, &m.PasswordHash, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("staff id=%d not found: %w", staffID, err)
	}
	return m, nil
}
