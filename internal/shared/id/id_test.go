package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate().String()
	for i := 0; i < 100; i++ {
		next := gen.Generate().String()
		if next <= prev {
			t.Fatalf("IDs should sort in creation order: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestTypedIDGeneration(t *testing.T) {
	subID := NewSubscriptionID()
	cliID := NewClientID()
	reqID := NewRequestID()

	if !strings.HasPrefix(string(subID), "sub_") {
		t.Errorf("SubscriptionID should start with 'sub_', got: %s", subID)
	}
	if !strings.HasPrefix(string(cliID), "cli_") {
		t.Errorf("ClientID should start with 'cli_', got: %s", cliID)
	}
	if !strings.HasPrefix(reqID.String(), "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", reqID)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	subID := NewSubscriptionID()

	ts, err := Timestamp(subID.String())
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) {
		t.Errorf("Timestamp %v should not precede %v", ts, before)
	}

	if _, err := Timestamp("sub_not-a-ulid"); err == nil {
		t.Error("Timestamp should reject malformed IDs")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var (
		mu   sync.Mutex
		seen = make(map[SubscriptionID]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := NewSubscriptionID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
