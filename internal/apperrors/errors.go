package apperrors

import (
	"errors"
	"fmt"
)

// RetryableError indicates an error that might be resolved by retrying.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps the given error as a RetryableError, adding a message.
// It uses fmt.Errorf with %w to maintain the error chain.
func NewRetryable(err error, message string, args ...interface{}) error {
	// Ensure the original error is appended to the format arguments for %w
	format := message + ": %w"
	// Prepend formatted message args, then append the error itself
	allArgs := append(args, err)
	return &RetryableError{Err: fmt.Errorf(format, allArgs...)}
}

// FatalError indicates an error that is unlikely to be resolved by retrying.
type FatalError struct {
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps the given error as a FatalError, adding a message.
// It uses fmt.Errorf with %w to maintain the error chain.
func NewFatal(err error, message string, args ...interface{}) error {
	// Ensure the original error is appended to the format arguments for %w
	format := message + ": %w"
	// Prepend formatted message args, then append the error itself
	allArgs := append(args, err)
	return &FatalError{Err: fmt.Errorf(format, allArgs...)}
}

// --- Standard Error Definitions ---

// These sentinel errors define common application-level error conditions.
// They can be checked using errors.Is and potentially wrapped by RetryableError or FatalError
// depending on the context where they are handled.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates failure during data validation.
	ErrValidation = errors.New("validation failed")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
	// ErrGateway indicates a data access gateway communication error.
	ErrGateway = errors.New("gateway error")
	// ErrUnauthorized indicates an authorization failure.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrDuplicate indicates a conflict due to duplicate data (e.g., unique constraint).
	ErrDuplicate = errors.New("duplicate resource")
	// ErrConflict indicates a general conflict state (e.g., optimistic locking failure).
	ErrConflict = errors.New("resource conflict")
	// ErrBadRequest indicates a malformed or invalid request from the client/caller.
	ErrBadRequest = errors.New("bad request")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timeout")
)

// --- Validation Error ---

// ValidationMessage is the stable top-level message of every ValidationError.
// The form layer keys off this exact string.
const ValidationMessage = "Validation failed"

// ValidationError carries the full set of field violations from one
// validation pass. Errors maps a JSON field path (e.g. "contact_ids",
// "email.0.value") to a human-readable message. All violations from a single
// call are batched into one ValidationError rather than failing on the first.
type ValidationError struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d field error(s)", e.Message, len(e.Errors))
}

// Is allows errors.Is(err, ErrValidation) to match a ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidation builds a ValidationError from a path-keyed message map.
func NewValidation(fieldErrors map[string]string) *ValidationError {
	return &ValidationError{
		Message: ValidationMessage,
		Errors:  fieldErrors,
	}
}

// --- Duplicate Opportunity Error ---

// DuplicateOpportunityCode is the machine-readable code carried by a
// DuplicateOpportunityError, distinct from generic validation failures.
const DuplicateOpportunityCode = "DUPLICATE_OPPORTUNITY"

// ExistingOpportunityRef identifies the record that caused a duplicate
// conflict so the caller can link to it.
type ExistingOpportunityRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
}

// DuplicateOpportunityError is raised when an opportunity create would
// re-link a (principal, customer, product) triple that already exists.
// It is a conflict with existing data, not malformed input, so it is a
// separate type from ValidationError.
type DuplicateOpportunityError struct {
	Code     string                 `json:"code"`
	Existing ExistingOpportunityRef `json:"existing_opportunity"`
}

// Error implements the error interface.
func (e *DuplicateOpportunityError) Error() string {
	return fmt.Sprintf(
		"Duplicate opportunity detected. Existing opportunity: %q (ID: %s, Stage: %s)",
		e.Existing.Name, e.Existing.ID, e.Existing.Stage,
	)
}

// Is allows errors.Is(err, ErrDuplicate) to match a DuplicateOpportunityError.
func (e *DuplicateOpportunityError) Is(target error) bool {
	return target == ErrDuplicate
}

// NewDuplicateOpportunity builds a DuplicateOpportunityError for the given
// existing record.
func NewDuplicateOpportunity(id, name, stage string) *DuplicateOpportunityError {
	return &DuplicateOpportunityError{
		Code:     DuplicateOpportunityCode,
		Existing: ExistingOpportunityRef{ID: id, Name: name, Stage: stage},
	}
}

// --- Helper functions for checking ---

// IsRetryable checks if the error is a RetryableError or wraps one.
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// IsFatal checks if the error is a FatalError or wraps one.
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

// --- Specific Standard Error Checkers ---

// IsNotFoundError checks if the error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// AsValidationError extracts a ValidationError from the chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

// IsDatabaseError checks if the error is or wraps ErrDatabase.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsGatewayError checks if the error is or wraps ErrGateway.
func IsGatewayError(err error) bool {
	return errors.Is(err, ErrGateway)
}

// IsDuplicateError checks if the error is or wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// AsDuplicateOpportunityError extracts a DuplicateOpportunityError, if any.
func AsDuplicateOpportunityError(err error) (*DuplicateOpportunityError, bool) {
	var target *DuplicateOpportunityError
	ok := errors.As(err, &target)
	return target, ok
}

// IsConflictError checks if the error is or wraps ErrConflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsBadRequestError checks if the error is or wraps ErrBadRequest.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsTimeoutError checks if the error is or wraps ErrTimeout.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}
