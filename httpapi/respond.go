package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/store"
	"github.com/MrEthical07/goPerm/transport"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, transport.ErrorResponse{Status: status, Message: message})
}

func writeFieldErrors(w http.ResponseWriter, err error) {
	resp := transport.ErrorResponse{Status: http.StatusBadRequest, Message: "invalid request body"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, transport.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

func writeDiagnostics(w http.ResponseWriter, message string, diags []permission.Diagnostic) {
	writeJSON(w, http.StatusUnprocessableEntity, transport.ErrorResponse{
		Status:      http.StatusUnprocessableEntity,
		Message:     message,
		Diagnostics: diags,
	})
}

// writeServiceError maps service and store errors onto statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *permission.ValidationError
	switch {
	case errors.As(err, &verr):
		writeDiagnostics(w, permission.ErrValidationFailed.Error(), verr.Diagnostics)
	case errors.Is(err, goPerm.ErrCriticalGrantBlocked),
		errors.Is(err, permission.ErrMalformedEntry),
		errors.Is(err, permission.ErrUnknownModule),
		errors.Is(err, permission.ErrActionNotInCatalog):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrVersionConflict):
		writeError(w, http.StatusConflict, "version conflict")
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, goPerm.ErrRoleIDRequired),
		errors.Is(err, goPerm.ErrUserIDRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, goPerm.ErrServiceClosed):
		s.logger.Warn("role api backend unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger.Error("role api request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
