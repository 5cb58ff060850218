package services

import (
	"testing"

	"shekelfolio/internal/testutil"
)

func TestUserService_CreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("Alice@Example.com", "password123", "Alice", "Cohen")
	testutil.AssertNoError(t, err)

	if user.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.Password == "password123" {
		t.Error("password was stored in plaintext")
	}
	if !user.IsActive {
		t.Error("expected new user to be active")
	}
	if user.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	_, err := svc.CreateUser("dup@example.com", "password123", "", "")
	testutil.AssertNoError(t, err)

	_, err = svc.CreateUser("DUP@example.com", "password456", "", "")
	testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
}

func TestUserService_CreateUser_MissingFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	_, err := svc.CreateUser("", "password123", "", "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	_, err = svc.CreateUser("a@b.com", "", "", "")
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestUserService_GetUserByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created := testutil.CreateTestUserWithEmail(t, db, "find@example.com")

	user, err := svc.GetUserByEmail("FIND@example.com")
	testutil.AssertNoError(t, err)
	if user.ID != created.ID {
		t.Errorf("expected user %s, got %s", created.ID, user.ID)
	}

	_, err = svc.GetUserByEmail("missing@example.com")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestUserService_GetUserByEmail_InactiveExcluded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUserWithEmail(t, db, "inactive@example.com")
	if err := db.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	_, err := svc.GetUserByEmail("inactive@example.com")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestUserService_GetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created := testutil.CreateTestUser(t, db)

	user, err := svc.GetUserByID(created.ID)
	testutil.AssertNoError(t, err)
	if user.Email != created.Email {
		t.Errorf("expected email %q, got %q", created.Email, user.Email)
	}

	_, err = svc.GetUserByID("00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestUserService_VerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("verify@example.com", "correct-horse", "", "")
	testutil.AssertNoError(t, err)

	if !svc.VerifyPassword(user, "correct-horse") {
		t.Error("expected correct password to verify")
	}
	if svc.VerifyPassword(user, "wrong-horse") {
		t.Error("expected wrong password to fail")
	}
}
