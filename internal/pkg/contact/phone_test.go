package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"9876543210", "9876543210", true},
		{" +91 98765-43210 ", "+919876543210", true},
		{"(011) 2345.6789", "01123456789", true},
		{"12345", "", false},
		{"98765abc10", "", false},
		{"91+9876543210", "", false},
		{"", "", false},
		{"1234567890123456", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
