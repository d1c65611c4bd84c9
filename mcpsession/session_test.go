package mcpsession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	m := New(time.Hour)
	s := m.Create("2024-11-05", ClientInfo{Name: "test-client"})
	require.NotEmpty(t, s.ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, m.Count())
}

func TestMarkReadAndHasRead(t *testing.T) {
	m := New(time.Hour)
	s := m.Create("2024-11-05", ClientInfo{})
	assert.False(t, s.HasRead("doc-1"))
	s.MarkRead("doc-1")
	assert.True(t, s.HasRead("doc-1"))
	assert.False(t, s.HasRead("doc-2"))
}

func TestMarkInitialized(t *testing.T) {
	m := New(time.Hour)
	s := m.Create("2024-11-05", ClientInfo{})
	assert.False(t, s.Initialized)
	assert.True(t, m.MarkInitialized(s.ID))
	got, _ := m.Get(s.ID)
	assert.True(t, got.Initialized)
}

func TestMarkInitializedUnknownSession(t *testing.T) {
	m := New(time.Hour)
	assert.False(t, m.MarkInitialized("does-not-exist"))
}

func TestRemove(t *testing.T) {
	m := New(time.Hour)
	s := m.Create("2024-11-05", ClientInfo{})
	m.Remove(s.ID)
	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	m := New(10 * time.Millisecond)
	s := m.Create("2024-11-05", ClientInfo{})
	time.Sleep(50 * time.Millisecond)
	// Creating a second session triggers sweepLocked, which should have
	// expired the first one well past its TTL.
	m.Create("2024-11-05", ClientInfo{})
	_, ok := m.Get(s.ID)
	assert.False(t, ok)
}
