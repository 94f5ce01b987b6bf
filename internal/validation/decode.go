package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/validator"
)

// decode unmarshals arbitrary caller input (a map, a struct, raw JSON bytes)
// into the given input struct. Unknown keys are rejected so that a typo'd
// field surfaces as a validation failure instead of being silently dropped.
// Decode failures are reported as issues, never as raw encoding errors.
func decode(data interface{}, dst interface{}) validator.Issues {
	var issues validator.Issues

	var raw []byte
	switch v := data.(type) {
	case nil:
		issues.Add("", "payload is required")
		return issues
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		marshaled, err := json.Marshal(v)
		if err != nil {
			issues.Add("", "payload is not serializable")
			return issues
		}
		raw = marshaled
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			issues.Add(typeErr.Field, "has an invalid type")
		case strings.Contains(err.Error(), "unknown field"):
			issues.Add(unknownFieldName(err), "is not a recognized field")
		default:
			issues.Add("", "payload is not valid JSON")
		}
	}
	return issues
}

// unknownFieldName extracts the offending key from a DisallowUnknownFields
// error ('json: unknown field "foo"').
func unknownFieldName(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	end := strings.LastIndex(msg, `"`)
	if start >= 0 && end > start {
		return msg[start+1 : end]
	}
	return ""
}
