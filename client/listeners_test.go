package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/ferris"
)

func TestEmitAfterCloseIsDropped(t *testing.T) {
	em := newEventManager(nil)
	em.close()
	// must not panic
	em.emit(events.Connect{})
	em.close()
}

func TestConcurrentEmitAndCloseDoesNotPanic(t *testing.T) {
	em := newEventManager(nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				em.emit(events.Connect{})
			}
		}()
	}
	em.close()
	wg.Wait()
}

func TestDeliveryOrderSurvivesBacklog(t *testing.T) {
	var mu sync.Mutex
	var got []int
	em := newEventManager([]EventListener{
		NewListenerFunc(func(e events.MessageCreate) {
			mu.Lock()
			got = append(got, int(e.Message.ID))
			mu.Unlock()
		}),
	})

	// well past the buffer size, from a single producer
	const n = 1000
	for i := 1; i <= n; i++ {
		em.emit(events.MessageCreate{Message: ferris.Message{ID: ferris.ID(i)}})
	}
	em.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, n)
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("event %d delivered out of order: got id %d", i, v)
		}
	}
}

func TestCloseDrainsPendingEvents(t *testing.T) {
	var mu sync.Mutex
	count := 0
	em := newEventManager([]EventListener{
		NewListenerFunc(func(events.Connect) {
			mu.Lock()
			count++
			mu.Unlock()
		}),
	})
	for i := 0; i < 50; i++ {
		em.emit(events.Connect{})
	}
	em.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, count)
}
