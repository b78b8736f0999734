package auth

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"foodbridge/activity"
	"foodbridge/errs"
	"foodbridge/globals"
	"foodbridge/middleware"
	"foodbridge/models"
	"foodbridge/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type Service struct {
	Store    store.Store
	Audit    *activity.Recorder
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewService(s store.Store, audit *activity.Recorder, ttl time.Duration) *Service {
	return &Service{Store: s, Audit: audit, TokenTTL: ttl, Now: time.Now}
}

type RegisterInput struct {
	Email       string
	Password    string
	Role        models.Role
	OrgName     string
	ServiceArea string
	Phone       string
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a donor or NGO account. Admins are only seeded.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return Session{}, errs.Validation("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return Session{}, errs.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.Role != models.RoleDonor && in.Role != models.RoleNGO {
		return Session{}, errs.Validation("role must be donor or ngo")
	}

	u, err := s.createUser(ctx, email, in.Password, in.Role, in)
	if err != nil {
		return Session{}, err
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return Session{}, err
	}
	s.Audit.Record(ctx, u.ID, u.Email, activity.ActionRegister, "Registered as %s", u.Role)
	return Session{Token: token, User: u}, nil
}

func (s *Service) createUser(ctx context.Context, email, password string, role models.Role, in RegisterInput) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		OrgName:      strings.TrimSpace(in.OrgName),
		ServiceArea:  strings.TrimSpace(in.ServiceArea),
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	invalid := errs.New(errs.ErrUnauthenticated, "invalid email or password")
	u, err := s.Store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errs.ErrNotFound) {
		return Session{}, invalid
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, invalid
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return Session{}, err
	}
	s.Audit.Record(ctx, u.ID, u.Email, activity.ActionLogin, "Logged in")
	return Session{Token: token, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	return s.Store.GetUser(ctx, userID)
}

// IssueToken signs an HS256 token carrying the user id, email and role.
func (s *Service) IssueToken(u models.User) (string, error) {
	now := s.Now()
	claims := &middleware.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

// SeedAdmin creates the admin account if no user holds that email yet.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if _, err := s.createUser(ctx, email, password, models.RoleAdmin, RegisterInput{OrgName: "Platform Admin"}); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil
		}
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}
