package ratecontrol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateSerializesSameProvider(t *testing.T) {
	// 600 RPM = 100ms cooldown
	g := NewGateWithLimits(map[string]int{"tavily": 600}, 0)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(context.Background(), "tavily"))
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// First call is immediate, the remaining two wait one cooldown each.
	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond,
		"three calls to one provider should serialize through two cooldowns")
}

func TestGateIndependentProviders(t *testing.T) {
	g := NewGateWithLimits(map[string]int{"tavily": 6, "gemini": 6}, 0) // 10s cooldown each

	start := time.Now()
	require.NoError(t, g.Acquire(context.Background(), "tavily"))
	require.NoError(t, g.Acquire(context.Background(), "gemini"))
	elapsed := time.Since(start)

	// First acquire per provider must not wait on the other provider's gate.
	assert.Less(t, elapsed, 1*time.Second, "different providers must not block each other")
}

func TestGateAcquireHonorsContext(t *testing.T) {
	g := NewGateWithLimits(map[string]int{"brave": 1}, 0) // 60s cooldown

	require.NoError(t, g.Acquire(context.Background(), "brave"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx, "brave")
	assert.Error(t, err, "second acquire should fail once the context expires")
}

func TestGateDefaultCooldown(t *testing.T) {
	g := NewGateWithLimits(nil, 120)
	assert.Equal(t, 500*time.Millisecond, g.Cooldown("unknown-provider"))
}

func TestGateCaseInsensitiveProviderNames(t *testing.T) {
	g := NewGateWithLimits(map[string]int{"tavily": 60}, 0)
	assert.Equal(t, g.Cooldown("Tavily"), g.Cooldown("tavily"))
}
