package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/guardline/internal/provider/resilience"
)

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("expo"))

	registry.Register("expo", client)

	health := registry.GetHealth("expo")
	require.NotNil(t, health)
	assert.Equal(t, "expo", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_GetHealth_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Nil(t, registry.GetHealth("nope"))
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("fcm", resilience.NewClient(resilience.DefaultClientConfig("fcm")))

	registry.RecordSuccess("fcm")
	registry.RecordFailure("fcm", errors.New("connection reset"))

	health := registry.GetHealth("fcm")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "connection reset", health.LastError)
}

func TestRegistry_RecordForUnknownProviderIsNoop(t *testing.T) {
	registry := resilience.NewRegistry()

	// Must not panic or create an entry.
	registry.RecordSuccess("ghost")
	registry.RecordFailure("ghost", errors.New("boom"))

	assert.Empty(t, registry.GetAllHealth())
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("expo", resilience.NewClient(resilience.DefaultClientConfig("expo")))
	registry.Register("fcm", resilience.NewClient(resilience.DefaultClientConfig("fcm")))

	all := registry.GetAllHealth()
	assert.Len(t, all, 2)

	names := make(map[string]bool, len(all))
	for _, h := range all {
		names[h.Name] = true
	}
	assert.True(t, names["expo"])
	assert.True(t, names["fcm"])
}
