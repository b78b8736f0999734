package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"foodbridge/errs"
)

type M map[string]interface{}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func RespondWithError(w http.ResponseWriter, statusCode int, code, msg string) {
	RespondWithJSON(w, statusCode, map[string]string{"error": msg, "code": code})
}

// RespondWithErr maps err to its status and machine code. Internal errors are
// logged and replaced with a generic message.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	RespondWithError(w, status, errs.Code(err), errs.Message(err))
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body of at most 1 MiB into dst, reporting malformed
// or oversized input as a validation error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errs.Validation("request body is required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.Validation("request body exceeds %d bytes", tooLarge.Limit)
		}
		return errs.Validation("invalid JSON body: %v", err)
	}
	return nil
}
