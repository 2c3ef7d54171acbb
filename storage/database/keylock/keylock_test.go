package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocks(t *testing.T) {
	l := New()

	unlock := l.Lock("students")
	unlockOther := l.Lock("graduates") // other keys are free
	unlockOther()

	acquired := make(chan struct{})
	go func() {
		u := l.Lock("students")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("Lock() acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("k")()
		}()
	}
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}
