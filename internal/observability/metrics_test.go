package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordServeCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(serveRequests.WithLabelValues(OutcomeRedirected))
	RecordServe(OutcomeRedirected)
	RecordServe(OutcomeRedirected)
	after := testutil.ToFloat64(serveRequests.WithLabelValues(OutcomeRedirected))
	if after-before != 2 {
		t.Fatalf("expected 2 redirects recorded, got %v", after-before)
	}
}

func TestRecordStateSetsSingleActiveState(t *testing.T) {
	all := []string{"idle", "watching", "degraded"}
	RecordState("watching", all)
	if got := testutil.ToFloat64(supervisorState.WithLabelValues("watching")); got != 1 {
		t.Fatalf("watching gauge = %v, want 1", got)
	}
	RecordState("degraded", all)
	if got := testutil.ToFloat64(supervisorState.WithLabelValues("watching")); got != 0 {
		t.Fatalf("watching gauge = %v, want 0", got)
	}
}

func TestHandlerExposesInstallMetrics(t *testing.T) {
	RecordInstall("4.1.0", true, 1500*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `tailbreeze_install_total{success="true",version="4.1.0"}`) {
		t.Fatalf("install counter missing from exposition:\n%s", rec.Body.String())
	}
}
