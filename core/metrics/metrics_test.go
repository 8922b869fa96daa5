package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransitionCounterNormalizesLabels(t *testing.T) {
	before := testutil.ToFloat64(transitionsTotal.WithLabelValues("ask_contact", "ask_birthday"))
	IncTransition(" ASK_CONTACT ", "ask_birthday")
	after := testutil.ToFloat64(transitionsTotal.WithLabelValues("ask_contact", "ask_birthday"))
	if after-before != 1 {
		t.Fatalf("counter delta = %v, want 1", after-before)
	}
}

func TestEmptyLabelBecomesNone(t *testing.T) {
	before := testutil.ToFloat64(storeErrorsTotal.WithLabelValues("none", "load"))
	IncStoreError("", "load")
	if got := testutil.ToFloat64(storeErrorsTotal.WithLabelValues("none", "load")); got-before != 1 {
		t.Fatalf("counter delta = %v, want 1", got-before)
	}
}

func TestObserveAccountCall(t *testing.T) {
	before := testutil.ToFloat64(accountCallsTotal.WithLabelValues("login", "ok"))
	ObserveAccountCall("login", "ok", 120*time.Millisecond)
	if got := testutil.ToFloat64(accountCallsTotal.WithLabelValues("login", "ok")); got-before != 1 {
		t.Fatalf("counter delta = %v, want 1", got-before)
	}
	if n := testutil.CollectAndCount(accountCallLatencyMs); n == 0 {
		t.Fatal("expected latency series")
	}
}
