package shutdown_test

import (
	"sync"
	"testing"

	"github.com/jroosing/pbench/internal/shutdown"
	"github.com/stretchr/testify/assert"
)

func TestFlag_SetIsSet(t *testing.T) {
	var f shutdown.Flag
	assert.False(t, f.IsSet())
	f.Set()
	assert.True(t, f.IsSet())
}

func TestFlag_SetIdempotent(t *testing.T) {
	var f shutdown.Flag
	f.Set()
	f.Set()
	assert.True(t, f.IsSet())
}

func TestFlag_ConcurrentReaders(t *testing.T) {
	var f shutdown.Flag
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !f.IsSet() {
			}
		}()
	}
	f.Set()
	wg.Wait()
}
