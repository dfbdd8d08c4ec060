// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
	"github.com/Shivanand-hulikatti/unihub-events/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a single JSON object and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// writeServiceError maps service and store errors onto status codes.
// Unexpected errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, search.ErrInvalidSort), errors.Is(err, search.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrNotRegistered):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrMissingRequiredAnswers),
		errors.Is(err, repository.ErrInvalidAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrDependency):
		log.Error("dependency failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream dependency unavailable")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
