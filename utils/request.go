package utils

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"foodbridge/errs"
	"foodbridge/globals"
	"foodbridge/models"
)

func GetUserIDFromRequest(r *http.Request) string {
	id, _ := r.Context().Value(globals.UserIDKey).(string)
	return id
}

func GetEmailFromRequest(r *http.Request) string {
	email, _ := r.Context().Value(globals.EmailKey).(string)
	return email
}

// ActorFromRequest returns the authenticated caller set by middleware.Authenticate.
func ActorFromRequest(r *http.Request) (models.Actor, error) {
	id := GetUserIDFromRequest(r)
	role, _ := r.Context().Value(globals.RoleKey).(models.Role)
	if id == "" || !role.Valid() {
		return models.Actor{}, errs.New(errs.ErrUnauthenticated, "authentication required")
	}
	return models.Actor{ID: id, Role: role, Email: GetEmailFromRequest(r)}, nil
}

// QueryInt reads a positive integer query parameter, falling back to def.
func QueryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTime accepts ISO-8601 with or without an offset. Values without one
// are taken as UTC, which is what datetime-local form inputs send.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errs.Validation("invalid timestamp %q", s)
}
