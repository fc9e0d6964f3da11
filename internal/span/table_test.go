package span

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestTable_StartEnd(t *testing.T) {
	t.Run("end returns the recorded start and removes the entry", func(t *testing.T) {
		table := NewTable()

		replaced := table.Start("A", t0)
		start, ok := table.End("A")

		assert.False(t, replaced)
		require.True(t, ok)
		assert.Equal(t, t0, start)
		assert.Equal(t, 0, table.Len())
	})

	t.Run("second end for the same id finds nothing", func(t *testing.T) {
		table := NewTable()
		table.Start("A", t0)
		table.End("A")

		_, ok := table.End("A")

		assert.False(t, ok)
	})

	t.Run("unmatched end leaves the table unmodified", func(t *testing.T) {
		table := NewTable()
		table.Start("B", t0)

		_, ok := table.End("A")

		assert.False(t, ok)
		assert.Equal(t, 1, table.Len())
		start, found := table.Lookup("B")
		assert.True(t, found)
		assert.Equal(t, t0, start)
	})

	t.Run("repeated start keeps only the latest start time", func(t *testing.T) {
		table := NewTable()
		table.Start("A", t0)

		replaced := table.Start("A", t0.Add(time.Second))
		start, ok := table.End("A")

		assert.True(t, replaced)
		require.True(t, ok)
		assert.Equal(t, t0.Add(time.Second), start)
		assert.Equal(t, 0, table.Len())
	})
}

func TestTable_Evict(t *testing.T) {
	table := NewTable()
	table.Start("old", t0)
	table.Start("edge", t0.Add(time.Minute))
	table.Start("new", t0.Add(2*time.Minute))

	evicted := table.Evict(t0.Add(time.Minute))

	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, 2, table.Len())
	_, ok := table.Lookup("edge")
	assert.True(t, ok)
}

func TestTable_Concurrent(t *testing.T) {
	const n = 500
	table := NewTable()

	var wg sync.WaitGroup
	var mu sync.Mutex
	matched := 0

	for i := range n {
		id := fmt.Sprintf("span-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.Start(id, t0.Add(time.Duration(i)))
			if start, ok := table.End(id); ok {
				assert.Equal(t, t0.Add(time.Duration(i)), start)
				mu.Lock()
				matched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, n, matched)
	assert.Equal(t, 0, table.Len())
}
