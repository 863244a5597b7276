// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"aslipolitik/internal/models"
)

func TestUserStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(ctx, email, "testpass123", "Test User", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if created.Role != models.RoleEditor {
		t.Errorf("role: got %q, want %q", created.Role, models.RoleEditor)
	}
	if created.TOTPEnabled {
		t.Error("expected totp_enabled=false for new user")
	}
	if created.PasswordHash == "testpass123" {
		t.Error("password hash must not be plaintext")
	}

	byEmail, err := s.FindByEmail(ctx, email)
	if err != nil || byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("FindByEmail: got %v, %v", byEmail, err)
	}
	byID, err := s.FindByID(ctx, created.ID)
	if err != nil || byID == nil || byID.Email != email {
		t.Fatalf("FindByID: got %v, %v", byID, err)
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("FindByID random: got %v, %v", missing, err)
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-checkpass@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "correct-password", "PW Check", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(user, "correct-password") {
		t.Error("expected CheckPassword to return true for correct password")
	}
	if s.CheckPassword(user, "wrong-password") {
		t.Error("expected CheckPassword to return false for wrong password")
	}
	if s.CheckPassword(user, "") {
		t.Error("expected CheckPassword to return false for empty password")
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-totp@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "pass", "TOTP User", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.TOTPSecret != nil || user.TOTPEnabled {
		t.Error("expected no TOTP on a new user")
	}

	if err := s.SetTOTPSecret(ctx, user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	user, _ = s.FindByID(ctx, user.ID)
	if user.TOTPSecret == nil || *user.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("expected TOTP secret set, got %v", user.TOTPSecret)
	}
	if user.TOTPEnabled {
		t.Error("TOTP should not be enabled yet")
	}

	if err := s.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	user, _ = s.FindByID(ctx, user.ID)
	if !user.TOTPEnabled {
		t.Error("expected TOTP enabled after EnableTOTP")
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-dupe@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	if _, err := s.Create(ctx, email, "pass", "First", models.RoleEditor); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := s.Create(ctx, email, "pass", "Second", models.RoleEditor); err == nil {
		t.Error("expected error for duplicate email, got nil")
	}
}
