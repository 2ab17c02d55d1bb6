package hasher_test

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorprint/internal/hasher"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestCanonicalize(t *testing.T) {
	t.Run("sorts object keys", func(t *testing.T) {
		a, err := hasher.Canonicalize(map[string]any{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1,"b":2}`, a)
	})

	t.Run("sorts nested keys and struct fields", func(t *testing.T) {
		type inner struct {
			Zeta  int `json:"zeta"`
			Alpha int `json:"alpha"`
		}
		type outer struct {
			Omega inner `json:"omega"`
			Beta  []int `json:"beta"`
		}

		got, err := hasher.Canonicalize(outer{Omega: inner{Zeta: 1, Alpha: 2}, Beta: []int{3, 1, 2}})
		require.NoError(t, err)
		assert.Equal(t, `{"beta":[3,1,2],"omega":{"alpha":2,"zeta":1}}`, got)
	})

	t.Run("keeps number text intact", func(t *testing.T) {
		got, err := hasher.Canonicalize(map[string]any{
			"math": map[string]float64{"exp": 2.71828, "acos": 1.44558},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"math":{"acos":1.44558,"exp":2.71828}}`, got)
	})

	t.Run("does not escape html characters", func(t *testing.T) {
		got, err := hasher.Canonicalize(map[string]string{"r": "a<b>&c"})
		require.NoError(t, err)
		assert.Equal(t, `{"r":"a<b>&c"}`, got)
	})

	t.Run("rejects values json cannot encode", func(t *testing.T) {
		_, err := hasher.Canonicalize(map[string]any{"f": func() {}})
		assert.Error(t, err)
	})
}

func TestHash(t *testing.T) {
	t.Run("produces a 16 character lowercase hex digest", func(t *testing.T) {
		assert.Regexp(t, hexDigest, hasher.Hash(""))
		assert.Regexp(t, hexDigest, hasher.Hash("hello world"))
		assert.Len(t, hasher.Hash("x"), hasher.DigestLength)
	})

	t.Run("is deterministic", func(t *testing.T) {
		s := `{"math":{"acos":1.44558,"exp":2.71828}}`
		assert.Equal(t, hasher.Hash(s), hasher.Hash(s))
	})

	t.Run("differs for inputs of different length with same bytes", func(t *testing.T) {
		assert.NotEqual(t, hasher.Hash("a"), hasher.Hash("aa"))
	})

	t.Run("changes most hex digits on a single byte change", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789{}:,\""
		const rounds = 500

		changed, total := 0, 0
		for i := 0; i < rounds; i++ {
			n := 1 + rng.Intn(64)
			buf := make([]byte, n)
			for j := range buf {
				buf[j] = alphabet[rng.Intn(len(alphabet))]
			}
			mutated := append([]byte(nil), buf...)
			pos := rng.Intn(n)
			for mutated[pos] == buf[pos] {
				mutated[pos] = alphabet[rng.Intn(len(alphabet))]
			}

			a, b := hasher.Hash(string(buf)), hasher.Hash(string(mutated))
			require.NotEqual(t, a, b)
			for k := 0; k < hasher.DigestLength; k++ {
				if a[k] != b[k] {
					changed++
				}
				total++
			}
		}

		ratio := float64(changed) / float64(total)
		assert.GreaterOrEqual(t, ratio, 0.25, "avalanche ratio %.3f", ratio)
	})
}

func TestSum(t *testing.T) {
	t.Run("is independent of key order", func(t *testing.T) {
		a, err := hasher.Sum(map[string]any{"a": 1, "b": 2})
		require.NoError(t, err)
		b, err := hasher.Sum(map[string]any{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("matches hashing the canonical string", func(t *testing.T) {
		v := map[string]any{"math": map[string]float64{"acos": 1.44558, "exp": 2.71828}}
		canonical, err := hasher.Canonicalize(v)
		require.NoError(t, err)

		sum, err := hasher.Sum(v)
		require.NoError(t, err)
		assert.Equal(t, hasher.Hash(canonical), sum)
		assert.Regexp(t, hexDigest, sum)
	})

	t.Run("array order is significant", func(t *testing.T) {
		a, err := hasher.Sum([]int{1, 2})
		require.NoError(t, err)
		b, err := hasher.Sum([]int{2, 1})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
