package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.messages, "\n")
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("echo", func(_ context.Context, e Event) (any, error) {
		got = e
		return "result", nil
	})

	resp := d.Dispatch(context.Background(), Request{
		ID:   json.RawMessage(`"req-7"`),
		Tool: "echo",
		Args: json.RawMessage(`{"a":1}`),
	})

	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Result != "result" {
		t.Errorf("expected 'result', got %v", resp.Result)
	}
	if string(resp.ID) != `"req-7"` || resp.Tool != "echo" {
		t.Errorf("id/tool not echoed: %+v", resp)
	}
	if got.RequestID != "req-7" || got.Batch || string(got.Args) != `{"a":1}` {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), Request{Tool: "teleport"})
	if resp.Success || resp.Kind != KindUnknownTool {
		t.Errorf("expected unknown_tool failure, got %+v", resp)
	}

	resp = d.Dispatch(context.Background(), Request{})
	if resp.Kind != KindValidation {
		t.Errorf("expected validation failure for empty tool, got %+v", resp)
	}
}

func TestDispatcher_ErrorKinds(t *testing.T) {
	d, _ := newTestDispatcher(t)
	errLookup := errors.New("no such pokemon")
	d.SetClassifier(func(err error) ErrorKind {
		if errors.Is(err, errLookup) {
			return KindLookup
		}
		return ""
	})

	d.Register("tagged", func(context.Context, Event) (any, error) {
		return nil, Errorf(KindPrecondition, "search assumption violated")
	})
	d.Register("classified", func(context.Context, Event) (any, error) {
		return "partial", fmt.Errorf("resolve attacker: %w", errLookup)
	})
	d.Register("plain", func(context.Context, Event) (any, error) {
		return nil, errors.New("boom")
	})

	tests := []struct {
		tool string
		want ErrorKind
	}{
		{"tagged", KindPrecondition},
		{"classified", KindLookup},
		{"plain", KindInternal},
	}
	for _, tt := range tests {
		resp := d.Dispatch(context.Background(), Request{Tool: tt.tool})
		if resp.Success || resp.Kind != tt.want {
			t.Errorf("%s: expected kind %s, got %+v", tt.tool, tt.want, resp)
		}
		if resp.Result != nil {
			t.Errorf("%s: failed response must not carry a result", tt.tool)
		}
	}
}

func TestDispatcher_PanicBecomesFailure(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register("panics", func(context.Context, Event) (any, error) {
		panic("index out of range")
	})

	resp := d.Dispatch(context.Background(), Request{Tool: "panics"})
	if resp.Success || resp.Kind != KindInternal {
		t.Fatalf("expected internal failure, got %+v", resp)
	}
	if !strings.Contains(resp.Error, "index out of range") {
		t.Errorf("unexpected error %q", resp.Error)
	}
	if !strings.Contains(logger.joined(), "handler panicked") {
		t.Error("panic was not logged")
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.SetTimeout(10 * time.Millisecond)
	d.Register("slow", func(ctx context.Context, _ Event) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	resp := d.Dispatch(context.Background(), Request{Tool: "slow"})
	if resp.Kind != KindTimeout {
		t.Errorf("expected timeout, got %+v", resp)
	}
}

func TestDispatcher_BatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.SetConcurrency(3)

	d.Register("square", func(_ context.Context, e Event) (any, error) {
		var args struct {
			N int `json:"n"`
		}
		if err := e.Decode(&args); err != nil {
			return nil, err
		}
		if !e.Batch {
			return nil, errors.New("expected batch flag")
		}
		// later elements finish first
		time.Sleep(time.Duration(10-args.N) * time.Millisecond)
		return args.N * args.N, nil
	})

	var reqs []Request
	for i := 0; i < 10; i++ {
		reqs = append(reqs, Request{Tool: "square", Args: json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))})
	}
	reqs[4].Args = json.RawMessage(`{"n":"four"}`)

	resps := d.DispatchBatch(context.Background(), reqs)
	if len(resps) != len(reqs) {
		t.Fatalf("expected %d responses, got %d", len(reqs), len(resps))
	}
	for i, r := range resps {
		if i == 4 {
			if r.Success || r.Kind != KindValidation {
				t.Errorf("element 4 should fail validation, got %+v", r)
			}
			continue
		}
		if !r.Success || r.Result != i*i {
			t.Errorf("element %d: got %+v", i, r)
		}
	}

	if got := d.DispatchBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("empty batch should give no responses, got %d", len(got))
	}
}

func TestDispatcher_BatchConcurrencyLimit(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.SetConcurrency(2)

	var running, peak atomic.Int32
	d.Register("work", func(context.Context, Event) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	})

	reqs := make([]Request, 8)
	for i := range reqs {
		reqs[i] = Request{Tool: "work"}
	}
	d.DispatchBatch(context.Background(), reqs)

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", peak.Load())
	}
}

func TestDispatcher_Observers(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var mu sync.Mutex
	var records []core.CallRecord
	d.Observe(func(rec core.CallRecord) {
		mu.Lock()
		defer mu.Unlock()
		records = append(records, rec)
	})
	d.Register("ok", func(context.Context, Event) (any, error) { return 1, nil })

	d.Dispatch(context.Background(), Request{ID: json.RawMessage(`42`), Tool: "ok"})
	d.DispatchBatch(context.Background(), []Request{{Tool: "ok"}, {Tool: "missing"}})

	mu.Lock()
	defer mu.Unlock()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].RequestID != "42" || !records[0].OK || records[0].Batch {
		t.Errorf("unexpected first record %+v", records[0])
	}
	var failed int
	for _, r := range records[1:] {
		if !r.Batch {
			t.Errorf("batch record not flagged: %+v", r)
		}
		if !r.OK {
			failed++
			if r.ErrorKind != string(KindUnknownTool) {
				t.Errorf("unexpected error kind %q", r.ErrorKind)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected one failed record, got %d", failed)
	}
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	observed := make(chan core.CallRecord, 3)
	d.Observe(func(rec core.CallRecord) { observed <- rec })

	d.Register("refresh", func(context.Context, Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		resp := d.Dispatch(context.Background(), Request{Tool: "refresh"})
		if !resp.Success {
			t.Errorf("unexpected failure: %+v", resp)
		}
		if q, ok := resp.Result.(Queued); !ok || !q.Queued || q.Tool != "refresh" {
			t.Errorf("expected queued result, got %v", resp.Result)
		}
	}

	wg.Wait()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
	for i := 0; i < 3; i++ {
		select {
		case rec := <-observed:
			if !rec.OK || rec.Tool != "refresh" {
				t.Errorf("unexpected record %+v", rec)
			}
		case <-time.After(time.Second):
			t.Fatal("queued call was not observed")
		}
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("full", func(context.Context, Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))
	defer close(block)

	d.Dispatch(context.Background(), Request{Tool: "full"})
	<-started // the worker holds the first call
	d.Dispatch(context.Background(), Request{Tool: "full"})
	d.Dispatch(context.Background(), Request{Tool: "full"})

	resp := d.Dispatch(context.Background(), Request{Tool: "full"})
	if resp.Success || resp.Kind != KindQueueFull {
		t.Errorf("expected queue_full, got %+v", resp)
	}
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	started := make(chan struct{}, 1)
	block := make(chan struct{})
	d.Register("blocking", func(context.Context, Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(context.Background(), Request{Tool: "blocking"})
	<-started
	d.Dispatch(context.Background(), Request{Tool: "blocking"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), Request{Tool: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_BlockingRespectsContext(t *testing.T) {
	d, _ := newTestDispatcher(t)
	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{}, 1)
	d.Register("stuck", func(context.Context, Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(context.Background(), Request{Tool: "stuck"})
	<-started
	d.Dispatch(context.Background(), Request{Tool: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	resp := d.Dispatch(ctx, Request{Tool: "stuck"})
	if resp.Kind != KindTimeout {
		t.Errorf("expected timeout while queue is full, got %+v", resp)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("logged", func(ctx context.Context, _ Event) (any, error) {
		if logging.CorrelationID(ctx) != "abc" {
			return nil, errors.New("correlation id missing")
		}
		return "ok", nil
	}, Logged())

	resp := d.Dispatch(context.Background(), Request{ID: json.RawMessage(`"abc"`), Tool: "logged"})
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp)
	}

	out := logger.joined()
	if !strings.Contains(out, "handling call") || !strings.Contains(out, "call complete") {
		t.Errorf("expected debug logs, got:\n%s", out)
	}
}

func TestEvent_Decode(t *testing.T) {
	var args struct {
		Name string `json:"name"`
	}
	if err := (Event{Tool: "x"}).Decode(&args); err != nil {
		t.Errorf("empty args should decode: %v", err)
	}
	if err := (Event{Tool: "x", Args: json.RawMessage("null")}).Decode(&args); err != nil {
		t.Errorf("null args should decode: %v", err)
	}
	err := (Event{Tool: "x", Args: json.RawMessage(`{"nmae":"typo"}`)}).Decode(&args)
	var ke *KindError
	if !errors.As(err, &ke) || ke.Kind != KindValidation {
		t.Errorf("unknown field should be a validation error, got %v", err)
	}
}

func TestDispatcher_HasHandlerAndTools(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register("a", func(context.Context, Event) (any, error) { return nil, nil })

	if !d.HasHandler("a") || d.HasHandler("b") {
		t.Error("HasHandler mismatch")
	}
	if tools := d.Tools(); len(tools) != 1 || tools[0] != "a" {
		t.Errorf("unexpected tools %v", tools)
	}
}
