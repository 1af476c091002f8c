package password

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pribylovaa/go-attendance/internal/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Дешёвые параметры: тесты проверяют формат и семантику, а не стойкость.
var testArgon2Params = Argon2Params{Memory: 64, Iterations: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func hashers() map[string]Hasher {
	return map[string]Hasher{
		"bcrypt":   NewBcrypt(bcrypt.MinCost),
		"argon2id": NewArgon2id(testArgon2Params),
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	passwords := []string{"pw1", "Abcdef1!", "пароль-юникод", " spaces inside ", strings.Repeat("x", 72)}

	for name, h := range hashers() {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, p := range passwords {
				digest, err := h.Hash(p)
				require.NoError(t, err)
				require.NotEqual(t, p, digest)
				require.True(t, h.Verify(p, digest), "verify(p, hash(p)) must hold for %q", p)
			}
		})
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	for name, h := range hashers() {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			digest, err := h.Hash("pw1")
			require.NoError(t, err)

			require.False(t, h.Verify("pw2", digest))
			require.False(t, h.Verify("", digest))
			require.False(t, h.Verify("PW1", digest))
		})
	}
}

func TestHash_IsSalted(t *testing.T) {
	t.Parallel()

	for name, h := range hashers() {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a, err := h.Hash("same")
			require.NoError(t, err)
			b, err := h.Hash("same")
			require.NoError(t, err)

			require.NotEqual(t, a, b)
			require.True(t, h.Verify("same", a))
			require.True(t, h.Verify("same", b))
		})
	}
}

func TestVerify_MalformedDigest_ReturnsFalse(t *testing.T) {
	t.Parallel()

	digests := []string{
		"",
		"plain-text",
		"$2a$04$short",
		"$argon2id$v=19$m=64,t=1,p=1$bad-base64!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	}

	for name, h := range hashers() {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, d := range digests {
				require.NotPanics(t, func() {
					require.False(t, h.Verify("pw", d), "digest %q", d)
				})
			}
		})
	}
}

func TestBcrypt_TooLong(t *testing.T) {
	t.Parallel()

	_, err := NewBcrypt(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcrypt_CostOutOfRange_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).cost)
	require.Equal(t, bcrypt.MinCost, NewBcrypt(bcrypt.MinCost).cost)
}

func TestArgon2id_DigestFormat(t *testing.T) {
	t.Parallel()

	digest, err := NewArgon2id(testArgon2Params).Hash("pw")
	require.NoError(t, err)

	parts := strings.Split(digest, "$")
	require.Len(t, parts, 6)
	require.Equal(t, "argon2id", parts[1])
	require.Equal(t, "v=19", parts[2])
	require.Equal(t, "m=64,t=1,p=1", parts[3])
}

func TestNew_SelectsPrimary_AndVerifiesBothFormats(t *testing.T) {
	t.Parallel()

	bcryptDigest, err := NewBcrypt(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)
	argonDigest, err := NewArgon2id(testArgon2Params).Hash("pw")
	require.NoError(t, err)

	t.Run("bcrypt primary", func(t *testing.T) {
		t.Parallel()

		h, err := New(config.AuthConfig{PasswordAlgorithm: config.PasswordBcrypt, BcryptCost: bcrypt.MinCost})
		require.NoError(t, err)

		d, err := h.Hash("pw")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(d, "$2a$"))

		require.True(t, h.Verify("pw", bcryptDigest))
		require.True(t, h.Verify("pw", argonDigest))
		require.False(t, h.Verify("pw", "$unknown$"))
	})

	t.Run("argon2id primary", func(t *testing.T) {
		t.Parallel()

		h, err := New(config.AuthConfig{PasswordAlgorithm: config.PasswordArgon2id, BcryptCost: bcrypt.MinCost})
		require.NoError(t, err)

		m, ok := h.(*Multi)
		require.True(t, ok)
		_, isArgon := m.primary.(*Argon2id)
		require.True(t, isArgon)

		require.True(t, h.Verify("pw", bcryptDigest))
		require.True(t, h.Verify("pw", argonDigest))
	})
}

// countingHasher считает вызовы Verify; формат дайджеста ему безразличен.
type countingHasher struct {
	prefix string
	calls  atomic.Int32
}

func (h *countingHasher) Hash(plain string) (string, error) {
	return h.prefix + plain, nil
}

func (h *countingHasher) Verify(plain, digest string) bool {
	h.calls.Add(1)
	return digest == h.prefix+plain
}

func TestMulti_VerifyRunsBothAlgorithms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		digest string
		want   bool
	}{
		{name: "bcrypt digest", digest: "$2a$pw", want: true},
		{name: "bcrypt digest, wrong password", digest: "$2a$other", want: false},
		{name: "argon2id digest", digest: "$argon2id$pw", want: true},
		{name: "argon2id digest, wrong password", digest: "$argon2id$other", want: false},
		{name: "unknown format", digest: "$unknown$pw", want: false},
		{name: "empty digest", digest: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := &countingHasher{prefix: "$2a$"}
			a := &countingHasher{prefix: "$argon2id$"}

			m, err := newMulti(a, b, a)
			require.NoError(t, err)

			require.Equal(t, tc.want, m.Verify("pw", tc.digest))
			require.EqualValues(t, 1, b.calls.Load())
			require.EqualValues(t, 1, a.calls.Load())
		})
	}
}

func TestNewMulti_HashFailure(t *testing.T) {
	t.Parallel()

	_, err := newMulti(failing{}, failing{}, &countingHasher{})
	require.Error(t, err)

	_, err = newMulti(&countingHasher{}, &countingHasher{}, failing{})
	require.Error(t, err)
}

type failing struct{}

func (failing) Hash(string) (string, error) { return "", errors.New("boom") }
func (failing) Verify(string, string) bool { return false }
