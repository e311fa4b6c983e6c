package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"connection", &ConnectionError{Driver: "relational", Target: "db", Err: errors.New("refused")}, ErrSourceUnavailable},
		{"sheet", &SheetNotFoundError{Sheet: "Plan1"}, ErrSourceUnavailable},
		{"driver", &UnknownDriverError{Driver: "nope"}, ErrUnknownDriver},
		{"field", &UnknownFieldError{Field: "unknownfield"}, ErrUnknownField},
		{"shape", &InvalidDataShapeError{Got: "int"}, ErrInvalidDataShape},
		{"unsupported", &UnsupportedError{Driver: "directory", Operation: "FieldList"}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("login failed")
	err := &ConnectionError{Driver: "relational", Target: "sqlserver://host", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "login failed")
	assert.Contains(t, err.Error(), "sqlserver://host")
}

func TestUnknownDriverError_Error(t *testing.T) {
	err := &UnknownDriverError{Driver: "not_a_driver", Available: []string{"delimited", "directory"}}

	msg := err.Error()
	assert.Contains(t, msg, "not_a_driver")
	assert.Contains(t, msg, "delimited")
	assert.Contains(t, msg, "storagy.yaml")
}

func TestUnknownFieldError_NamesField(t *testing.T) {
	err := &UnknownFieldError{Field: "unknownfield", Fields: []string{"x", "y"}}
	assert.Contains(t, err.Error(), `"unknownfield"`)
}
