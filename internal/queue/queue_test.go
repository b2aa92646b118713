package queue

import (
	"sync"
	"testing"
)

func TestQueue_PushDrain(t *testing.T) {
	q := New[string](0)
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}

	if dropped := q.Push("a", "b", "c"); dropped != 0 {
		t.Errorf("unbounded queue dropped %d", dropped)
	}
	got := q.Drain(2)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 left, got %d", q.Len())
	}

	got = q.Drain(0)
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("expected [c], got %v", got)
	}
	if got := q.Drain(0); len(got) != 0 {
		t.Errorf("expected nothing, got %v", got)
	}
}

func TestQueue_BoundDropsOldest(t *testing.T) {
	q := New[int](3)
	q.Push(1, 2)
	if dropped := q.Push(3, 4, 5); dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	got := q.Drain(0)
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("expected [3 4 5], got %v", got)
	}
	if q.Dropped() != 2 {
		t.Errorf("expected Dropped 2, got %d", q.Dropped())
	}
}

func TestQueue_Requeue(t *testing.T) {
	q := New[int](4)
	q.Push(1, 2, 3)
	batch := q.Drain(0)
	q.Push(4, 5)

	if dropped := q.Requeue(batch); dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	got := q.Drain(0)
	want := []int{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	if dropped := q.Requeue(nil); dropped != 0 {
		t.Errorf("empty requeue dropped %d", dropped)
	}
}

func TestQueue_DrainDoesNotAlias(t *testing.T) {
	q := New[int](0)
	q.Push(1, 2, 3)
	first := q.Drain(1)
	q.Push(9)
	rest := q.Drain(0)
	if first[0] != 1 {
		t.Errorf("drained slice changed: %v", first)
	}
	if len(rest) != 3 || rest[0] != 2 || rest[2] != 9 {
		t.Errorf("expected [2 3 9], got %v", rest)
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int](0)
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(n*100 + j)
			}
		}(i)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				items := q.Drain(10)
				mu.Lock()
				total += len(items)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total += len(q.Drain(0))

	if total != 1000 {
		t.Errorf("expected 1000 items, got %d", total)
	}
}
