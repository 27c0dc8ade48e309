package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSetCookie(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"single", "a=1; Path=/", []string{"a=1; Path=/"}},
		{"two", "a=1, b=2", []string{"a=1", "b=2"}},
		{
			"expires date keeps its comma",
			"a=1; Expires=Wed, 21 Oct 2037 07:28:00 GMT; HttpOnly, b=2",
			[]string{"a=1; Expires=Wed, 21 Oct 2037 07:28:00 GMT; HttpOnly", "b=2"},
		},
		{
			"expires last",
			"a=1; expires=Thu, 01 Jan 1970 00:00:00 GMT",
			[]string{"a=1; expires=Thu, 01 Jan 1970 00:00:00 GMT"},
		},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, splitSetCookie(tt.value))
		})
	}
}
