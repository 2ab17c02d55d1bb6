package visitors_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorprint/internal/anchor"
	"anchorprint/internal/hasher"
	"anchorprint/internal/signals"
	"anchorprint/internal/testsupport"
	"anchorprint/internal/visitors"
)

func TestID(t *testing.T) {
	ctx := context.Background()

	t.Run("generates consistent ID for the same anchor", func(t *testing.T) {
		p := anchor.Build(ctx, testsupport.FixedBag())

		id1, err := visitors.ID(p)
		require.NoError(t, err)
		id2, err := visitors.ID(anchor.Build(ctx, testsupport.FixedBag()))
		require.NoError(t, err)

		assert.Equal(t, id1, id2)
		assert.True(t, visitors.ValidID(id1))
	})

	t.Run("equals the hash of the canonical anchor", func(t *testing.T) {
		p := anchor.Build(ctx, testsupport.FixedBag())
		canonical, err := hasher.Canonicalize(p)
		require.NoError(t, err)

		id, err := visitors.ID(p)
		require.NoError(t, err)
		assert.Equal(t, hasher.Hash(canonical), id)
	})

	t.Run("generates different IDs for different hardware", func(t *testing.T) {
		other := testsupport.FixedBag()
		other.Hardware = signals.Some(signals.HardwareHints{Concurrency: 4, MemoryGB: 8, Platform: "MacIntel"})

		a, err := visitors.ID(anchor.Build(ctx, testsupport.FixedBag()))
		require.NoError(t, err)
		b, err := visitors.ID(anchor.Build(ctx, other))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("an empty anchor still yields a valid ID", func(t *testing.T) {
		id, err := visitors.ID(anchor.Payload{})
		require.NoError(t, err)
		assert.True(t, visitors.ValidID(id))
		assert.Equal(t, hasher.Hash("{}"), id)
	})
}

func TestValidID(t *testing.T) {
	assert.True(t, visitors.ValidID("0123456789abcdef"))
	assert.False(t, visitors.ValidID("0123456789ABCDEF"))
	assert.False(t, visitors.ValidID("0123456789abcde"))
	assert.False(t, visitors.ValidID("0123456789abcdefg"))
}

func TestVisitorAlias(t *testing.T) {
	t.Run("is stable for an identifier", func(t *testing.T) {
		assert.Equal(t, visitors.VisitorAlias("0123456789abcdef"), visitors.VisitorAlias("0123456789abcdef"))
	})

	t.Run("is an adjective and an animal", func(t *testing.T) {
		parts := strings.Split(visitors.VisitorAlias("fedcba9876543210"), " ")
		assert.Len(t, parts, 2)
	})
}
