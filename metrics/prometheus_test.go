package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveScan(t *testing.T) {
	seg := "test-observe"
	ObserveScan(seg, ScanResult{Decoded: 3, Malformed: 1, Skipped: 2, Trailing: 10, Bytes: 9658, Elapsed: time.Millisecond})
	ObserveScan(seg, ScanResult{Decoded: 2, Trailing: 0, Bytes: 9648})

	if got := testutil.ToFloat64(RecordsDecoded.WithLabelValues(seg)); got != 5 {
		t.Errorf("Expected RecordsDecoded to be 5, got %f", got)
	}
	if got := testutil.ToFloat64(RecordsMalformed.WithLabelValues(seg)); got != 1 {
		t.Errorf("Expected RecordsMalformed to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(RecordsSkipped.WithLabelValues(seg)); got != 2 {
		t.Errorf("Expected RecordsSkipped to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(TrailingBytes.WithLabelValues(seg)); got != 0 {
		t.Errorf("Expected TrailingBytes to be 0, got %f", got)
	}
	if got := testutil.ToFloat64(SegmentBytes.WithLabelValues(seg)); got != 9648 {
		t.Errorf("Expected SegmentBytes to be 9648, got %f", got)
	}
	if n := testutil.CollectAndCount(ScanLatency); n == 0 {
		t.Errorf("Expected ScanLatency to have samples")
	}
}

func TestUpdateLatest(t *testing.T) {
	seg := "test-latest"
	UpdateLatest(seg, -12345, 1700000000)

	if got := testutil.ToFloat64(LastPrice.WithLabelValues(seg)); got != -12345 {
		t.Errorf("Expected LastPrice to be -12345, got %f", got)
	}
	if got := testutil.ToFloat64(LastTimestamp.WithLabelValues(seg)); got != 1700000000 {
		t.Errorf("Expected LastTimestamp to be 1700000000, got %f", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	UpdateLatest("test-handler", 1, 2)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `depth_last_price{segment="test-handler"} 1`) {
		t.Errorf("expected depth_last_price in output")
	}
}
