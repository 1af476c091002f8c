package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii_local_gt_2", in: "foobar@example.com", want: "fo***@example.com"},
		{name: "ascii_local_len_1", in: "a@x.com", want: "***@x.com"},
		{name: "ascii_local_len_2", in: "ab@ex.com", want: "***@ex.com"},
		{name: "no_at", in: "no-at-here", want: "***"},
		{name: "multiple_at", in: "a@b@c", want: "***"},
		{name: "empty", in: "", want: "***"},
		{name: "unicode_local", in: "юзер@пример.рф", want: "юз***@пример.рф"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestToken_FingerprintIsStableAndOpaque(t *testing.T) {
	t.Parallel()

	raw := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQHguY29tIn0.c2ln"

	a := Token(raw)
	b := Token(raw)

	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, "tok:"))
	require.Len(t, a, len("tok:")+8)
	require.NotContains(t, a, "eyJ")
	require.NotEqual(t, a, Token(raw+"x"))
}

func TestToken_Empty(t *testing.T) {
	t.Parallel()
	require.Equal(t, "[EMPTY_TOKEN]", Token(""))
}
