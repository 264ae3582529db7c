package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/internal/testutil"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/util"
)

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "ana@example.com", "Ana", "Lopez")
	svc := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, user.ID, &service.UpdateProfileRequest{
		FirstName: util.StringPtr(" Anna "),
		LastName:  util.StringPtr("   "),
		Phone:     util.StringPtr("+1 555 0100"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Anna" || updated.LastName != "Lopez" || updated.Phone == nil || *updated.Phone != "+1 555 0100" {
		t.Errorf("updated = %+v", updated)
	}

	same, err := svc.UpdateProfile(ctx, user.ID, &service.UpdateProfileRequest{})
	if err != nil || same.FirstName != "Anna" {
		t.Errorf("empty update = %+v, %v", same, err)
	}

	if _, err := svc.UpdateProfile(ctx, 9999, &service.UpdateProfileRequest{}); !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "ana@example.com", "Ana", "Lopez")
	svc := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, &service.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	if !errors.Is(err, service.ErrPasswordWrong) {
		t.Errorf("wrong old password err = %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, &service.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	profile, err := svc.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !util.CheckPassword("newsecret", profile.PasswordHash) {
		t.Errorf("password not changed")
	}
}
