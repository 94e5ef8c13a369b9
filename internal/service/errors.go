package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies recoverable request-level failures. Anything outside
// this taxonomy (store unavailable, etc.) propagates as a plain error and is
// reported as an internal failure at the handler boundary.
type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInsufficient ErrorCode = "INSUFFICIENT_POINTS"
	ErrCodeExpired      ErrorCode = "EXPIRED"
	ErrCodeState        ErrorCode = "INVALID_STATE"
)

// DomainError is the error type every operation returns for expected
// failures. OccupiedUntil is set on office-occupancy conflicts so the caller
// can tell the client when the office frees up.
type DomainError struct {
	Code          ErrorCode
	Message       string
	OccupiedUntil *time.Time
}

func (e *DomainError) Error() string {
	return e.Message
}

func newError(code ErrorCode, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeValidation, format, args...)
}

func notFoundErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeNotFound, format, args...)
}

func conflictErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeConflict, format, args...)
}

func insufficientErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeInsufficient, format, args...)
}

func expiredErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeExpired, format, args...)
}

func stateErr(format string, args ...interface{}) *DomainError {
	return newError(ErrCodeState, format, args...)
}

// occupiedErr reports an office-occupancy conflict naming the occupant's
// term end, per the confirmation and creation conflict checks.
func occupiedErr(until time.Time) *DomainError {
	e := conflictErr("office is currently occupied by another client until %s", until.Format("2006-01-02"))
	e.OccupiedUntil = &until
	return e
}

// AsDomainError unwraps err into a DomainError when it is one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
