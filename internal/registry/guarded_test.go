package registry

import (
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters map[string]int

func cloneCounters(c counters) counters {
	return maps.Clone(c)
}

func seedCounters(c counters, found bool) counters {
	if c == nil {
		c = counters{}
	}
	return c
}

// memoryBackend records every saved document and can be told to fail.
type memoryBackend struct {
	mu      sync.Mutex
	stored  counters
	found   bool
	saves   int
	failErr error
	loadErr error
}

func (b *memoryBackend) Load() (counters, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return nil, false, b.loadErr
	}
	return cloneCounters(b.stored), b.found, nil
}

func (b *memoryBackend) Save(doc counters) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return b.failErr
	}
	b.saves++
	b.stored = cloneCounters(doc)
	b.found = true
	return nil
}

func openCounters(t *testing.T, backend *memoryBackend, opts ...Option) *Guarded[counters] {
	t.Helper()
	g, err := Open("counters", backend, cloneCounters, seedCounters, opts...)
	require.NoError(t, err)
	return g
}

func increment(key string) func(*counters) (bool, error) {
	return func(doc *counters) (bool, error) {
		(*doc)[key]++
		return true, nil
	}
}

func TestOpen_SeedsMissingDocument(t *testing.T) {
	backend := &memoryBackend{}
	var sawFound = true
	g, err := Open("counters", backend, cloneCounters, func(c counters, found bool) counters {
		sawFound = found
		return counters{"seeded": 0}
	})
	require.NoError(t, err)

	assert.False(t, sawFound)
	assert.Equal(t, counters{"seeded": 0}, g.Snapshot())
	assert.Equal(t, 0, backend.saves, "seeding does not write")
	assert.Equal(t, "counters", g.Name())
}

func TestOpen_LoadError(t *testing.T) {
	backend := &memoryBackend{loadErr: errors.New("corrupt")}
	_, err := Open("counters", backend, cloneCounters, seedCounters)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading counters registry")
	assert.Contains(t, err.Error(), "corrupt")
}

func TestUpdate_SavesOnChange(t *testing.T) {
	backend := &memoryBackend{}
	g := openCounters(t, backend)

	require.NoError(t, g.Update(increment("a")))
	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, counters{"a": 1}, backend.stored)
	assert.Equal(t, counters{"a": 1}, g.Snapshot())
}

func TestUpdate_NoChangeNoWrite(t *testing.T) {
	backend := &memoryBackend{}
	g := openCounters(t, backend)

	err := g.Update(func(doc *counters) (bool, error) {
		(*doc)["scratch"] = 99
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, backend.saves)
	assert.Equal(t, counters{}, g.Snapshot(), "unreported changes are discarded")
}

func TestUpdate_CallbackErrorDiscardsChange(t *testing.T) {
	backend := &memoryBackend{}
	g := openCounters(t, backend)

	boom := errors.New("boom")
	err := g.Update(func(doc *counters) (bool, error) {
		(*doc)["a"] = 1
		return true, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, IsPersistenceError(err))
	assert.Equal(t, 0, backend.saves)
	assert.Equal(t, counters{}, g.Snapshot())
}

func TestUpdate_SaveFailureRollsBack(t *testing.T) {
	backend := &memoryBackend{}
	var observed []error
	g := openCounters(t, backend, WithWriteObserver(func(name string, err error) {
		assert.Equal(t, "counters", name)
		observed = append(observed, err)
	}))

	require.NoError(t, g.Update(increment("a")))

	diskFull := errors.New("disk full")
	backend.failErr = diskFull
	err := g.Update(increment("a"))
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.ErrorIs(t, err, diskFull)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "counters", pe.Registry)

	// In-memory state is what was last saved.
	assert.Equal(t, counters{"a": 1}, g.Snapshot())
	require.Len(t, observed, 2)
	assert.NoError(t, observed[0])
	assert.ErrorIs(t, observed[1], diskFull)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	g := openCounters(t, &memoryBackend{})
	require.NoError(t, g.Update(increment("a")))

	snap := g.Snapshot()
	snap["a"] = 100
	assert.Equal(t, counters{"a": 1}, g.Snapshot())
}

func TestRead_SeesCurrentDocument(t *testing.T) {
	g := openCounters(t, &memoryBackend{})
	require.NoError(t, g.Update(increment("a")))

	var got int
	g.Read(func(doc counters) { got = doc["a"] })
	assert.Equal(t, 1, got)
}

func TestUpdate_ConcurrentNoLostUpdates(t *testing.T) {
	backend := &memoryBackend{}
	g := openCounters(t, backend)

	const workers = 50
	const perWorker = 20

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				assert.NoError(t, g.Update(increment("n")))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, g.Snapshot()["n"])
	assert.Equal(t, workers*perWorker, backend.stored["n"], "last save reflects every update")
	assert.Equal(t, workers*perWorker, backend.saves)
}
