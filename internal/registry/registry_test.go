package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/gateway/internal/util"
)

func testServices() map[string]string {
	return map[string]string{
		"user-service":       "http://localhost:5001",
		"restaurant-service": "http://localhost:5002",
		"order-service":      "http://localhost:5003",
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	reg := New(testServices())
	assert.Equal(t, 3, reg.Len())
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.Names())
	assert.Empty(t, reg.Entries())
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	reg := New(testServices())

	baseURL, err := reg.Resolve("user-service")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5001", baseURL)
}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	t.Parallel()

	reg := New(testServices())

	_, err := reg.Resolve("search-service")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrServiceNotRegistered)
	assert.Contains(t, err.Error(), "search-service")
}

func TestRegistry_Names_Sorted(t *testing.T) {
	t.Parallel()

	reg := New(testServices())

	names := reg.Names()
	assert.Equal(t, []string{"order-service", "restaurant-service", "user-service"}, names)

	// Mutating the returned slice must not affect the registry.
	names[0] = "mutated"
	assert.Equal(t, "order-service", reg.Names()[0])
}

func TestRegistry_Entries(t *testing.T) {
	t.Parallel()

	reg := New(testServices())

	entries := reg.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Name: "order-service", BaseURL: "http://localhost:5003"}, entries[0])
	assert.Equal(t, Entry{Name: "user-service", BaseURL: "http://localhost:5001"}, entries[2])
}
