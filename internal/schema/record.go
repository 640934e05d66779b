// Package schema defines the canonical candidate record shape and the
// coercion rules that turn loosely-typed model output into it.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// CandidateRecord is the canonical output unit of the extraction pipeline.
// Every field is always present; absent information is the empty string.
type CandidateRecord struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CurrentTitle  string `json:"current_title"`
	CurrentOrg    string `json:"current_org"`
	PreviousTitle string `json:"previous_title"`
	PreviousOrg   string `json:"previous_org"`
}

// FieldNames lists the canonical JSON field names in output order.
var FieldNames = []string{
	"first_name",
	"last_name",
	"email",
	"phone",
	"current_title",
	"current_org",
	"previous_title",
	"previous_org",
}

// Empty returns a record with every field set to the empty string.
func Empty() CandidateRecord {
	return CandidateRecord{}
}

// Coerce builds a CandidateRecord from an untyped JSON object. Missing keys
// default to "", scalar values are stringified and trimmed, and array or
// object values for a scalar field are replaced with "".
func Coerce(data map[string]any) CandidateRecord {
	return CandidateRecord{
		FirstName:     coerceString(data["first_name"]),
		LastName:      coerceString(data["last_name"]),
		Email:         coerceString(data["email"]),
		Phone:         coerceString(data["phone"]),
		CurrentTitle:  coerceString(data["current_title"]),
		CurrentOrg:    coerceString(data["current_org"]),
		PreviousTitle: coerceString(data["previous_title"]),
		PreviousOrg:   coerceString(data["previous_org"]),
	}
}

// coerceString converts a JSON scalar to a trimmed string. Nested structures
// are rejected: a scalar field never holds an array or object.
func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		// json.Unmarshal decodes all numbers as float64
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// HasName reports whether the model produced any name information.
func (r CandidateRecord) HasName() bool {
	return r.FirstName != "" || r.LastName != ""
}

// IsEmpty reports whether every field of the record is empty.
func (r CandidateRecord) IsEmpty() bool {
	return r == CandidateRecord{}
}
