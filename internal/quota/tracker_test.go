package quota

import (
	"sync"
	"testing"
	"time"
)

func TestCheckAndReserveUnbounded(t *testing.T) {
	tr := New(Limits{})
	if err := tr.CheckAndReserve(); err != nil {
		t.Fatalf("expected no error with unbounded limits, got %v", err)
	}
}

func TestRecordExecutionAccumulates(t *testing.T) {
	tr := New(Limits{})
	totals := []int64{10, 20, 30}
	for _, n := range totals {
		if err := tr.RecordExecution(n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	usage := tr.GetUsage()
	if usage.Executions != int64(len(totals)) {
		t.Errorf("executions = %d, want %d", usage.Executions, len(totals))
	}
	if usage.TotalTokens != 60 {
		t.Errorf("total tokens = %d, want 60", usage.TotalTokens)
	}
}

func TestCheckAndReserveFailsPermanentlyOnceCapReached(t *testing.T) {
	tr := New(Limits{MaxExecutions: 1})
	if err := tr.CheckAndReserve(); err != nil {
		t.Fatalf("first reserve should succeed: %v", err)
	}
	if err := tr.RecordExecution(5); err != nil {
		t.Fatalf("first execution should be admitted: %v", err)
	}
	if err := tr.CheckAndReserve(); err == nil {
		t.Fatal("expected CheckAndReserve to fail after cap reached")
	}
	// Once over, it never resets.
	if err := tr.CheckAndReserve(); err == nil {
		t.Fatal("expected CheckAndReserve to remain failed")
	}
}

func TestRecordExecutionAdmitsOneOverLimitAttempt(t *testing.T) {
	// record_execution increments before checking caps, so the execution
	// that crosses the line is still committed; the caller learns about it
	// via the returned error.
	tr := New(Limits{MaxTotalTokens: 100})
	if err := tr.RecordExecution(90); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := tr.RecordExecution(50)
	if err == nil {
		t.Fatal("expected error when crossing token cap")
	}
	usage := tr.GetUsage()
	if usage.TotalTokens != 140 {
		t.Errorf("total tokens = %d, want 140 (increment still committed)", usage.TotalTokens)
	}
}

func TestSharedHandleObservesSameCounters(t *testing.T) {
	parent := New(Limits{})
	child := parent // value copy, same underlying state pointer

	if err := child.RecordExecution(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := parent.GetUsage().TotalTokens; got != 7 {
		t.Errorf("parent observed %d tokens, want 7", got)
	}
}

func TestRemainingHelpersReportUnsetCaps(t *testing.T) {
	tr := New(Limits{})
	if _, ok := tr.RemainingExecutions(); ok {
		t.Error("expected RemainingExecutions to report unset cap")
	}
	if _, ok := tr.RemainingTokens(); ok {
		t.Error("expected RemainingTokens to report unset cap")
	}
	if _, ok := tr.RemainingTime(); ok {
		t.Error("expected RemainingTime to report unset cap")
	}
}

func TestRemainingExecutionsCountsDown(t *testing.T) {
	tr := New(Limits{MaxExecutions: 3})
	if err := tr.RecordExecution(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remaining, ok := tr.RemainingExecutions()
	if !ok || remaining != 2 {
		t.Errorf("remaining = %d, ok = %v, want 2, true", remaining, ok)
	}
}

func TestConcurrentRecordExecution(t *testing.T) {
	tr := New(Limits{})
	var wg sync.WaitGroup
	const n = 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = tr.RecordExecution(1)
		}()
	}
	wg.Wait()
	if usage := tr.GetUsage(); usage.Executions != n || usage.TotalTokens != n {
		t.Errorf("got executions=%d tokens=%d, want %d/%d", usage.Executions, usage.TotalTokens, n, n)
	}
}

func TestTimeCapExpires(t *testing.T) {
	tr := New(Limits{MaxTotalTime: 10 * time.Millisecond})
	time.Sleep(15 * time.Millisecond)
	if err := tr.CheckAndReserve(); err == nil {
		t.Fatal("expected time cap to have expired")
	}
}
