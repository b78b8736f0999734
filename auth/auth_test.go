package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodbridge/errs"
	"foodbridge/middleware"
	"foodbridge/models"
	"foodbridge/store"
)

func newService() (*Service, *store.MemoryStore) {
	s := store.NewMemoryStore()
	return NewService(s, nil, time.Hour), s
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Email: " Food@Shelter.org ", Password: "secret1", Role: models.RoleNGO, OrgName: "City Shelter"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Email != "food@shelter.org" || sess.User.PasswordHash == "secret1" {
		t.Errorf("unexpected user %+v", sess.User)
	}
	claims, err := middleware.ValidateJWT("Bearer " + sess.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != sess.User.ID || claims.Role != models.RoleNGO {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := svc.Login(ctx, "FOOD@shelter.org", "secret1"); err != nil {
		t.Errorf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "food@shelter.org", "wrong!"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Errorf("bad password: expected unauthenticated, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@shelter.org", "secret1"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Errorf("unknown email: expected unauthenticated, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.org", Password: "secret1", Role: models.RoleDonor}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "secret1", Role: models.RoleDonor}, errs.ErrValidation},
		{"short password", RegisterInput{Email: "c@d.org", Password: "123", Role: models.RoleDonor}, errs.ErrValidation},
		{"admin self-signup", RegisterInput{Email: "c@d.org", Password: "secret1", Role: models.RoleAdmin}, errs.ErrValidation},
		{"duplicate email", RegisterInput{Email: "A@B.org", Password: "secret1", Role: models.RoleNGO}, errs.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc, s := newService()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.SeedAdmin(ctx, "admin@foodbridge.org", "changeme"); err != nil {
			t.Fatal(err)
		}
	}
	admins, _ := s.ListUsers(ctx, models.RoleAdmin)
	if len(admins) != 1 {
		t.Fatalf("expected one admin, got %d", len(admins))
	}
	sess, err := svc.Login(ctx, "admin@foodbridge.org", "changeme")
	if err != nil || sess.User.Role != models.RoleAdmin {
		t.Errorf("admin login failed: %+v, %v", sess.User, err)
	}
	if err := svc.SeedAdmin(ctx, "", ""); err != nil {
		t.Errorf("empty config should be a no-op, got %v", err)
	}
}
