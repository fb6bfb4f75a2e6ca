package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/compiler"
	"github.com/roach88/searchql/internal/ir"
)

func TestConfigHolder_DefaultsWhenNil(t *testing.T) {
	h := NewConfigHolder(nil)
	require.NotNil(t, h.Load())
	assert.Equal(t, ir.DefaultRankingField, h.Load().RankingField())
}

func TestConfigHolder_Swap(t *testing.T) {
	first := ir.DefaultSearchConfig()
	h := NewConfigHolder(first)

	second, err := ir.NewSearchConfig(ir.SearchConfigSpec{ConnectorName: "other"})
	require.NoError(t, err)

	prev, err := h.Swap(second)
	require.NoError(t, err)
	assert.Same(t, first, prev)
	assert.Same(t, second, h.Load())

	_, err = h.Swap(nil)
	assert.Error(t, err)
	assert.Same(t, second, h.Load(), "failed swap leaves config in place")
}

func TestConfigHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.cue")
	require.NoError(t, os.WriteFile(path, compiler.DefaultSource, 0o644))

	initial, err := ir.NewSearchConfig(ir.SearchConfigSpec{ConnectorName: "initial"})
	require.NoError(t, err)
	h := NewConfigHolder(initial)

	require.NoError(t, h.Reload(path))
	assert.Equal(t, "fts", h.Load().ConnectorName())
	assert.NotEmpty(t, h.Load().Permissions().Read)
}

func TestConfigHolder_ReloadErrorKeepsConfig(t *testing.T) {
	initial := ir.DefaultSearchConfig()
	h := NewConfigHolder(initial)

	err := h.Reload(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
	assert.Same(t, initial, h.Load())
}

func TestConfigHolder_ConcurrentReaders(t *testing.T) {
	h := NewConfigHolder(nil)
	alt, err := ir.NewSearchConfig(ir.SearchConfigSpec{ConnectorName: "alt"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name := h.Load().ConnectorName()
				if name != ir.DefaultConnectorName && name != "alt" {
					t.Errorf("unexpected connector name %q", name)
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			_, _ = h.Swap(alt)
		} else {
			_, _ = h.Swap(ir.DefaultSearchConfig())
		}
	}
	wg.Wait()
}
