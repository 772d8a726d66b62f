package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/", "/"},
		{"/metrics", "/metrics"},
		{"/healthz", "/healthz"},

		// Anything else collapses into one label
		{"/favicon.ico", "/other"},
		{"/admin/../etc/passwd", "/other"},
		{"/r/help/comments/abc", "/other"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}
