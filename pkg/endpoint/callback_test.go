package endpoint

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatingCallback(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		notifications int
		wantFired     int32
	}{
		{name: "single", count: 1, notifications: 1, wantFired: 1},
		{name: "not yet complete", count: 3, notifications: 2, wantFired: 0},
		{name: "complete", count: 3, notifications: 3, wantFired: 1},
		{name: "surplus notifications ignored", count: 2, notifications: 5, wantFired: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fired atomic.Int32
			cb := newAggregatingCallback(tt.count, func() { fired.Add(1) })
			for i := 0; i < tt.notifications; i++ {
				cb.notify()
			}
			assert.Equal(t, tt.wantFired, fired.Load())
		})
	}
}

func TestAggregatingCallback_Concurrent(t *testing.T) {
	const n = 500
	var fired atomic.Int32
	cb := newAggregatingCallback(n, func() { fired.Add(1) })

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			cb.notify()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
}
