package stockdate

import (
	"errors"
	"strings"
)

// ErrInvalidInput matches every *InvalidInputError through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports form values that prevent a stock payload from
// being computed.  Fields holds the names of the offending values using the
// same identifiers as the JSON payloads (eventDate, eventTime, ...).
type InvalidInputError struct {
	Fields []string
	Reason string
}

func (e *InvalidInputError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing required values"
	}
	if len(e.Fields) == 0 {
		return reason
	}
	return reason + ": " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrInvalidInput) true for any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func missingValues(fields ...string) *InvalidInputError {
	return &InvalidInputError{Fields: fields}
}

func invalidValue(field, reason string) *InvalidInputError {
	return &InvalidInputError{Fields: []string{field}, Reason: reason}
}
