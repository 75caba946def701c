package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes err as {error, message} with its mapped status.
// Server-side failures are logged with their cause; the client only sees the label and message.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", err, zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("status", status))
	}
	s.jsonResponse(w, status, apperror.ToBody(err))
}

// decodeJSON reads a JSON body into dst and validates it
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperror.NewInvalidInput("request body is too large or unreadable")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.NewInvalidInput("Invalid request body: " + err.Error())
	}
	return s.validateStruct(dst)
}

func (s *Server) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return apperror.NewInvalidInput(validationMessage(err))
	}
	return nil
}

// validationMessage describes the first failed rule using the JSON field name
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		if ve.Param() != "" {
			return fmt.Sprintf("validation error: %s - %s=%s", ve.Field(), ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}
