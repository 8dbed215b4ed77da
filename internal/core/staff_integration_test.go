package core_test

import (
	"context"
	"errors"
	"testing"

	"moveflow/internal/core"
)

func TestStaff_AuthenticateVerifiesBcryptHash(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	hash, err := core.HashPassword("vinterflytt2026")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO staff (username, display_name, role, password_hash)
		VALUES ('maria', 'Maria Ek', 'teamlead', $1)
	`, hash)
	if err != nil {
		t.Fatalf("Failed to seed staff member: %v", err)
	}

	staff := core.NewStaffService(pool)

	member, err := staff.Authenticate(ctx, "maria", "vinterflytt2026")
	if err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}
	if member.Username != "maria" || member.Role != "teamlead" {
		t.Errorf("Unexpected staff member %+v", member)
	}

	if _, err := staff.Authenticate(ctx, "maria", "fel lösenord"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials for a wrong password, got %v", err)
	}
	if _, err := staff.Authenticate(ctx, "ingen", "vinterflytt2026"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials for an unknown username, got %v", err)
	}
}
