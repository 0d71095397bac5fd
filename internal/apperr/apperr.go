// Package apperr standardizes failure semantics across services and handlers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeGateClosed   Code = "gate_closed"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeUpstream     Code = "upstream_unavailable"
	CodeInternal     Code = "internal"
)

// Error is the canonical service error wrapper.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, op, message string) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message)}
}

func Wrap(code Code, op string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: msg, Cause: cause}
}

// CodeOf extracts the code from err, or CodeInternal for untagged errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// MapDB translates storage-layer failures into apperr codes. Unique key
// violations arrive as pgconn errors on Postgres and as message text on sqlite.
func MapDB(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(CodeNotFound, op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return Wrap(CodeConflict, op, err) // unique_violation
		case "23503":
			return Wrap(CodeValidation, op, err) // foreign_key_violation
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "already exists") {
		return Wrap(CodeConflict, op, err)
	}
	return Wrap(CodeInternal, op, err)
}

// KeyNotFoundError reports a missing field key on an indexed-field removal
// and carries the full document so the API can return it alongside the 404.
type KeyNotFoundError struct {
	Key string
	Doc map[string]any
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("index %q not found", e.Key)
}

func (e *KeyNotFoundError) Unwrap() error {
	return &Error{Code: CodeNotFound, Op: "RemoveField", Message: e.Error()}
}

// HTTPStatus maps a code to the status the REST surface reports.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeGateClosed, CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
