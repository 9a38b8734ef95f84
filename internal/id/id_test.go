package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	ids := make(map[string]bool)

	for range 500 {
		id, err := Generate("evt")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(id, "evt-"))
		// NanoID default is 21 characters.
		assert.Len(t, id, len("evt-")+21)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("sub")
	assert.True(t, strings.HasPrefix(id, "sub-"))
}

func TestSequence_StartsAtZero(t *testing.T) {
	var s Sequence
	assert.Equal(t, uint64(0), s.Next())
	assert.Equal(t, uint64(1), s.Next())
	assert.Equal(t, uint64(2), s.Next())
}

func TestSequence_Concurrent(t *testing.T) {
	var (
		s    Sequence
		mu   sync.Mutex
		seen = make(map[uint64]bool)
		wg   sync.WaitGroup
	)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				n := s.Next()
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1600)
}

func TestCounted(t *testing.T) {
	assert.Equal(t, "lugia-7", Counted("lugia", 7))
	assert.Equal(t, "egg-0", Counted("egg", 0))
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
