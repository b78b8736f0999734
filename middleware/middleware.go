package middleware

import (
	"context"
	"net/http"
	"strings"

	"foodbridge/errs"
	"foodbridge/globals"
	"foodbridge/models"
	"foodbridge/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// ValidateJWT parses a bearer header value ("Bearer <token>").
func ValidateJWT(header string) (*Claims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, errs.New(errs.ErrUnauthenticated, "missing or malformed bearer token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errs.New(errs.ErrUnauthenticated, "invalid token")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, errs.New(errs.ErrUnauthenticated, "invalid token claims")
	}
	return claims, nil
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			utils.RespondWithErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		ctx = context.WithValue(ctx, globals.EmailKey, claims.Email)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireRole must run inside Authenticate.
func RequireRole(next httprouter.Handle, roles ...models.Role) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		role, _ := r.Context().Value(globals.RoleKey).(models.Role)
		for _, allowed := range roles {
			if role == allowed {
				next(w, r, ps)
				return
			}
		}
		utils.RespondWithErr(w, r, errs.New(errs.ErrForbidden, "role %q may not access this resource", role))
	}
}
