package metrics

import (
	"strings"
	"testing"
)

func TestManagerRegistersCollectors(t *testing.T) {
	m := NewManager(WithNamespace("testns"))

	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	// Counters without observations are still registered; make sure the
	// namespace is applied to whatever is exported.
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "testns_") {
			t.Errorf("metric %q missing namespace prefix", mf.GetName())
		}
	}
}

func TestPackageHelpers(t *testing.T) {
	// The helpers share a lazily-built default manager; all calls must be
	// safe without any explicit setup.
	RecordSimulationSubmission()
	RecordSimulationSubmissionError()
	RecordSimulationPoll()
	RecordSimulationPollTimeout()
	RecordSimulationLatency(12.5)

	RecordStepResult("release", "pending")
	RecordStepResult("release", "resolved")
	RecordUnitResolved("headline")
	RecordJobCompleted()
	RecordJobFailed()
	UpdateActiveJobs(3)
	RecordHeadlineCompleted()

	RecordEmailSent()
	RecordEmailFailed()
	UpdateDispatchQueueSize(7)
	UpdateDispatchQueueCapacity(100)

	RecordHTTPRequest("release_scores", "POST", "202")
	RecordHTTPRequestDuration("release_scores", "POST", 4.2)

	mfs, err := GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected metrics to be exported")
	}

	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, want := range []string{
		"prsim_simulation_submissions_total",
		"prsim_step_results_total",
		"prsim_emails_sent_total",
		"prsim_http_requests_total",
	} {
		if !found[want] {
			t.Errorf("expected metric %q to be exported", want)
		}
	}
}
