package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/sharing"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a sharing error to its status code and user-facing text.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sharing.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, sharing.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, sharing.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, sharing.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sharing.ErrInvalidState):
		status = http.StatusConflict
	}
	writeMessage(w, status, sharing.UserMessage(err))
}

// decodeJSON reads the body into v and runs its validate tags. On failure
// the response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", field, minimumOf(fe))
	case "max":
		return fmt.Sprintf("%s is too long", field)
	default:
		return field + " is invalid"
	}
}

func minimumOf(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		var n int
		if _, err := fmt.Sscan(fe.Param(), &n); err == nil {
			return fmt.Sprint(n + 1)
		}
	}
	return fe.Param()
}

// callerID returns the authenticated user or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserID(r.Context())
	if id == "" {
		writeMessage(w, http.StatusUnauthorized, "Sign in to continue.")
		return "", false
	}
	return id, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty input
// means no date.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", v)
	}
	t = t.UTC()
	return &t, nil
}
