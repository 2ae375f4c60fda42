package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(AuthEventsTotal.WithLabelValues("login", "failure"))
	RecordAuthEvent("login", errors.New("bad password"))
	after := testutil.ToFloat64(AuthEventsTotal.WithLabelValues("login", "failure"))
	if after != before+1 {
		t.Fatalf("expected failure counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(StatsCacheRequests.WithLabelValues("memory", "hit"))
	RecordCacheLookup("memory", true)
	if got := testutil.ToFloat64(StatsCacheRequests.WithLabelValues("memory", "hit")); got != before+1 {
		t.Fatalf("expected hit counter to increase, got %v", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordHTTPRequest("GET", "/healthz", "200", 5*time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != before+1 {
		t.Fatalf("expected request counter to increase, got %v", got)
	}
}
