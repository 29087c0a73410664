package watch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatcher_CoalescesRapidAdds(t *testing.T) {
	var count atomic.Int32
	var mu sync.Mutex
	var last map[string]int

	b := NewBatcher(50*time.Millisecond, func(batch map[string]int) {
		count.Add(1)
		mu.Lock()
		last = batch
		mu.Unlock()
	})
	defer b.Stop()

	for i := 0; i < 10; i++ {
		key := "INC-1"
		if i%2 == 1 {
			key = "INC-2"
		}
		b.Add(key, i)
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Fatalf("expected 1 flush, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(last) != 2 || last["INC-1"] != 8 || last["INC-2"] != 9 {
		t.Errorf("unexpected batch %v", last)
	}
}

func TestBatcher_Stop(t *testing.T) {
	var count atomic.Int32
	b := NewBatcher(50*time.Millisecond, func(map[string]struct{}) {
		count.Add(1)
	})

	b.Add("INC-1", struct{}{})
	b.Stop()

	time.Sleep(100 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no flush after stop, got %d", got)
	}
}
