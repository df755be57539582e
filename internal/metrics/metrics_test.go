package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementDispatchStage(t *testing.T) {
	before := testutil.ToFloat64(DispatchStageCount.WithLabelValues("delivered"))
	IncrementDispatchStage("delivered")
	IncrementDispatchStage("delivered")
	after := testutil.ToFloat64(DispatchStageCount.WithLabelValues("delivered"))
	if after-before != 2 {
		t.Fatalf("delivered counter delta = %v, want 2", after-before)
	}
}

func TestRecordModelCallLabelsStatus(t *testing.T) {
	RecordModelCall("metrics_test_op", nil, 10*time.Millisecond)
	RecordModelCall("metrics_test_op", errors.New("boom"), 10*time.Millisecond)
	if n := testutil.CollectAndCount(ModelCallDuration, "assistant_model_call_duration_seconds"); n < 2 {
		t.Fatalf("expected at least two series, got %d", n)
	}
}
