package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns a singleton validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Register validation for extracting JSON field names instead of struct field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Issue is one field-level violation with a stable JSON path and a
// human-readable message.
type Issue struct {
	Path    string
	Message string
}

// Issues collects violations from per-field checks and refinements in
// declaration order.
type Issues []Issue

// Add appends an issue.
func (i *Issues) Add(path, message string) {
	*i = append(*i, Issue{Path: path, Message: message})
}

// Merge appends all issues from other.
func (i *Issues) Merge(other Issues) {
	*i = append(*i, other...)
}

// Empty reports whether no violations were collected.
func (i Issues) Empty() bool { return len(i) == 0 }

// ToError folds the issue list into a single structured ValidationError,
// keyed by field path. Later issues on the same path overwrite earlier ones.
// Returns nil when there are no issues.
func (i Issues) ToError() error {
	if len(i) == 0 {
		return nil
	}
	fieldErrors := make(map[string]string, len(i))
	for _, issue := range i {
		fieldErrors[issue.Path] = issue.Message
	}
	return apperrors.NewValidation(fieldErrors)
}

// CheckStruct runs the tag-based per-field checks on a struct and returns the
// violations as issues. A raw validator-library error never escapes: anything
// other than field violations (e.g. passing a non-struct) is reported as a
// single unpathed issue.
func CheckStruct(s interface{}) Issues {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return Issues{{Path: "", Message: err.Error()}}
	}

	issues := make(Issues, 0, len(validationErrors))
	for _, e := range validationErrors {
		issues = append(issues, Issue{
			Path:    issuePath(e.Namespace()),
			Message: getErrorMessage(e),
		})
	}
	return issues
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return Get().Var(field, tag)
}

// issuePath converts a validator namespace ("Input.tags[0]") into the dotted
// JSON path the UI layer keys errors on ("tags.0").
func issuePath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	namespace = strings.ReplaceAll(namespace, "]", "")
	return namespace
}

// getErrorMessage returns a user-friendly error message for a validation tag
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", e.Param())
	case "max":
		switch e.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must not contain more than %s items", e.Param())
		default:
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("validation tag '%s' with value '%v' failed", e.Tag(), e.Value())
	}
}
