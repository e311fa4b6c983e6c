package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"yyyy-mm-dd", true},
		{"dd/mm/yyyy hh:mm", true},
		{"[h]:mm:ss", true},
		{"[$-409]mmmm d, yyyy", true},
		{"0.00", false},
		{"#,##0", false},
		{"General", false},
		{`0.00 "days"`, false},
		{`[Red]0.00`, false},
		{`\d0`, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormat(tt.format))
		})
	}
}
