package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts typed domain errors and driver errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		invalid      *domain.InvalidTransitionError
		missingField *domain.MissingRequiredFieldError
		unknownState *domain.UnknownStateError
		closed       *domain.AlreadyClosedError
		deactivated  *domain.AlreadyDeactivatedError
		concurrent   *domain.ConcurrentModificationError
		conflict     *domain.ConflictError
		fiberErr     *fiber.Error
	)
	switch {
	case errors.As(err, &validation):
		details := make(map[string]any, len(validation.Fields))
		for field, reason := range validation.Fields {
			details[field] = reason
		}
		return &DomainError{Code: "VALIDATION_FAILED", Message: validation.Message, HTTPStatus: http.StatusBadRequest, Details: details, Err: err}
	case errors.As(err, &notFound):
		return &DomainError{Code: "NOT_FOUND", Message: notFound.Error(), HTTPStatus: http.StatusNotFound, Details: map[string]any{"resource": notFound.Resource, "id": notFound.ID}, Err: err}
	case errors.Is(err, pgx.ErrNoRows):
		return &DomainError{Code: "NOT_FOUND", Message: "resource not found", HTTPStatus: http.StatusNotFound, Err: err}
	case errors.As(err, &invalid):
		return &DomainError{Code: "INVALID_TRANSITION", Message: invalid.Error(), HTTPStatus: http.StatusUnprocessableEntity, Details: map[string]any{"from": invalid.From, "to": invalid.To}, Err: err}
	case errors.As(err, &missingField):
		return &DomainError{Code: "MISSING_REQUIRED_FIELD", Message: missingField.Error(), HTTPStatus: http.StatusUnprocessableEntity, Details: map[string]any{"field": missingField.Field, "status": missingField.Status}, Err: err}
	case errors.As(err, &unknownState):
		return &DomainError{Code: "UNKNOWN_STATE", Message: unknownState.Error(), HTTPStatus: http.StatusUnprocessableEntity, Details: map[string]any{"state": unknownState.State}, Err: err}
	case errors.As(err, &closed):
		return &DomainError{Code: "ALREADY_CLOSED", Message: closed.Error(), HTTPStatus: http.StatusConflict, Details: map[string]any{"ticket_id": closed.TicketID}, Err: err}
	case errors.As(err, &deactivated):
		return &DomainError{Code: "ALREADY_DEACTIVATED", Message: deactivated.Error(), HTTPStatus: http.StatusConflict, Details: map[string]any{"entity": deactivated.Entity, "id": deactivated.ID}, Err: err}
	case errors.As(err, &concurrent):
		return &DomainError{Code: "CONCURRENT_MODIFICATION", Message: concurrent.Error(), HTTPStatus: http.StatusConflict, Details: map[string]any{"entity": concurrent.Entity, "id": concurrent.ID}, Err: err}
	case errors.As(err, &conflict):
		return &DomainError{Code: "CONFLICT", Message: conflict.Message, HTTPStatus: http.StatusConflict, Details: conflict.Details, Err: err}
	case errors.As(err, &fiberErr):
		return &DomainError{Code: http.StatusText(fiberErr.Code), Message: fiberErr.Message, HTTPStatus: fiberErr.Code, Err: err}
	}

	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
