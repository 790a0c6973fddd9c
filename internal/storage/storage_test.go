package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/windaep/internal/study"
)

type fakeStore struct {
	name   string
	err    error
	saves  int
	closed bool
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) Save(ctx context.Context, r *study.Record) error {
	f.saves++
	return f.err
}

func (f *fakeStore) Close() error {
	f.closed = true
	return f.err
}

func TestManagerPersistsToEveryStore(t *testing.T) {
	a := &fakeStore{name: "a"}
	b := &fakeStore{name: "b"}
	m := NewManager(nil, a)
	m.Add(b)
	assert.Equal(t, []string{"a", "b"}, m.Stores())

	require.NoError(t, m.Persist(context.Background(), study.NewRecord(study.Metadata{})))
	assert.Equal(t, 1, a.saves)
	assert.Equal(t, 1, b.saves)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestManagerKeepsGoingAfterFailure(t *testing.T) {
	diskFull := errors.New("disk full")
	a := &fakeStore{name: "a", err: diskFull}
	b := &fakeStore{name: "b"}
	m := NewManager(nil, a, b)

	err := m.Persist(context.Background(), study.NewRecord(study.Metadata{}))
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "a:")
	assert.Equal(t, 1, b.saves)

	assert.ErrorIs(t, m.Close(), diskFull)
	assert.True(t, b.closed)
}

func TestManagerTracksHealth(t *testing.T) {
	a := &fakeStore{name: "a"}
	b := &fakeStore{name: "b", err: errors.New("permission denied")}
	m := NewManager(nil, a, b)

	r := study.NewRecord(study.Metadata{})
	require.NoError(t, r.Append(study.Iteration{SampleCount: 2}))
	assert.Error(t, m.Persist(context.Background(), r))
	assert.Error(t, m.Persist(context.Background(), r))

	health := m.Health()
	require.Len(t, health, 2)
	assert.Equal(t, StatusHealthy, health["a"].Status)
	assert.Equal(t, 2, health["a"].Saves)
	assert.Equal(t, 1, health["a"].Iterations)
	assert.Equal(t, StatusUnhealthy, health["b"].Status)
	assert.Equal(t, 2, health["b"].Failures)
	assert.Equal(t, "permission denied", health["b"].Error)
}

func TestHealthTrackerRecovers(t *testing.T) {
	ht := NewHealthTracker()
	assert.False(t, ht.IsHealthy("json-file"))

	ht.Record("json-file", 1, errors.New("disk full"))
	assert.False(t, ht.IsHealthy("json-file"))

	ht.Record("json-file", 2, nil)
	assert.True(t, ht.IsHealthy("json-file"))
	h, ok := ht.Get("json-file")
	require.True(t, ok)
	assert.Empty(t, h.Error)
	assert.Equal(t, 1, h.Failures)
	assert.Equal(t, 2, h.Iterations)
}
