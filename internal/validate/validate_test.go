package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plainHTTPS", in: "https://example.com", want: "https://example.com/"},
		{name: "plainHTTP", in: "http://example.com/login", want: "http://example.com/login"},
		{name: "schemeless", in: "example.com/path", want: "https://example.com/path"},
		{name: "upperHost", in: "https://EXAMPLE.com/Path", want: "https://example.com/Path"},
		{name: "ipLiteral", in: "http://203.0.113.5/login", want: "http://203.0.113.5/login"},
		{name: "stripsFragment", in: "https://example.com/a#frag", want: "https://example.com/a"},
		{name: "keepsQuery", in: "https://example.com/a?b=1", want: "https://example.com/a?b=1"},
		{name: "surroundingSpace", in: "  https://example.com  ", want: "https://example.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		in     string
		reason error
	}{
		{name: "empty", in: "", reason: ErrEmptyURL},
		{name: "spacesOnly", in: "   ", reason: ErrEmptyURL},
		{name: "notAURL", in: "not a url", reason: ErrMalformedURL},
		{name: "ftpScheme", in: "ftp://example.com/file", reason: ErrInvalidScheme},
		{name: "javascriptScheme", in: "javascript:alert(1)", reason: ErrInvalidScheme},
		{name: "noHost", in: "https:///path", reason: ErrMissingHost},
		{name: "tooLong", in: "https://example.com/" + string(make([]byte, MaxURLLength)), reason: ErrURLTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			require.Error(t, err)

			var invalid *InvalidURLError
			require.True(t, errors.As(err, &invalid), "expected InvalidURLError, got %T", err)
			assert.ErrorIs(t, err, tt.reason)
		})
	}
}
