package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/scantrack/internal/tracker"
)

// maxBodySize limits JSON request bodies.
const maxBodySize = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into target and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := validate.Struct(target); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

// validationMessage returns a readable message for the first failed field.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request"
	}

	e := errs[0]
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "numeric":
		return e.Field() + " must contain digits only"
	default:
		return e.Field() + " is invalid"
	}
}

// trackerError maps a tracker error to an HTTP error response. Unexpected
// errors are logged and reported without detail.
func trackerError(w http.ResponseWriter, err error, action string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrEmptyBarcode),
		errors.Is(err, tracker.ErrInvalidMode),
		errors.Is(err, tracker.ErrNoBoxSelected),
		errors.Is(err, tracker.ErrInvalidLocation),
		errors.Is(err, tracker.ErrInvalidPassword):
		status = http.StatusBadRequest
	case errors.Is(err, tracker.ErrWrongPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, tracker.ErrBoxNotFound),
		errors.Is(err, tracker.ErrItemNotFound),
		errors.Is(err, tracker.ErrLocationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrBoxActive),
		errors.Is(err, tracker.ErrBoxNotActive),
		errors.Is(err, tracker.ErrItemExists),
		errors.Is(err, tracker.ErrLocationExists),
		errors.Is(err, tracker.ErrInvalidTransition):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err)
		jsonError(w, status, "failed to "+action)
		return
	}
	jsonError(w, status, err.Error())
}
