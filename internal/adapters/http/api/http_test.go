package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/http/api"
	"github.com/prsim/prsim/internal/adapters/mq/queue"
	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/campaign"
	"github.com/prsim/prsim/internal/headline"
	"github.com/prsim/prsim/internal/release"
)

type instantSim struct {
	submits atomic.Int64
}

func (s *instantSim) Submit(_ context.Context, _, _, _ string, _ []string) simulation.Submission {
	n := s.submits.Add(1)
	return simulation.Submission{OK: true, AnswerID: fmt.Sprintf("ans-%d", n), Status: simulation.StatusQueued}
}

func (s *instantSim) PollUntilComplete(_ context.Context, _ string, _ time.Duration) simulation.Result {
	return simulation.Result{
		OK:          true,
		Status:      simulation.StatusPredicted,
		Percentages: map[string]float64{"5": 60, "4": 25, "3": 15},
	}
}

type listGen struct{}

func (listGen) GenerateHeadlines(_ context.Context, _, _ string, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Alternative %d", i+1)
	}
	return out, nil
}

type fixedStats struct{}

func (fixedStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"service": "prsim"}
}

func newTestServer() *httptest.Server {
	store := repository.NewMemStore()
	releases := release.New(store, &instantSim{})
	headlines := headline.New(store, listGen{}, &instantSim{})
	campaigns := campaign.New(store, queue.NewInMemoryQueue(queue.WithCapacity(64)))

	mux := http.NewServeMux()
	api.NewServer(releases, headlines, campaigns, fixedStats{}).Register(mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	buf, err := json.Marshal(body)
	So(err, ShouldBeNil)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestReleaseRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer()
		defer srv.Close()

		Convey("When a scoring job is created", func() {
			resp, body := postJSON(t, srv.URL+"/api/release-scores", map[string]any{
				"release_text":  "ACME announces a new widget.",
				"population_id": "pop-1",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			jobID := body["job_id"].(string)
			So(jobID, ShouldNotBeEmpty)
			So(body["status"], ShouldEqual, "pending")

			Convey("Then a step resolves a unit", func() {
				resp, body := postJSON(t, srv.URL+"/api/release-scores/"+jobID+"/step", map[string]any{"question": 1})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["done"], ShouldEqual, true)
				So(body["score"], ShouldEqual, 5)
			})

			Convey("Then an out-of-range question is a bad request", func() {
				resp, _ := postJSON(t, srv.URL+"/api/release-scores/"+jobID+"/step", map[string]any{"question": 31})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the status route reports progress", func() {
				_, _ = postJSON(t, srv.URL+"/api/release-scores/"+jobID+"/step", map[string]any{"question": 1})
				resp, body := getJSON(t, srv.URL+"/api/release-scores/"+jobID)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["processed_count"], ShouldEqual, 1)
				So(body["total_score"], ShouldEqual, 5)
				So(body["completion_percent"], ShouldEqual, 3.3)
			})
		})

		Convey("When the request body is invalid", func() {
			resp, _ := postJSON(t, srv.URL+"/api/release-scores", map[string]any{"release_text": "x"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the job does not exist", func() {
			resp, _ := postJSON(t, srv.URL+"/api/release-scores/nope/step", map[string]any{"question": 1})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)

			resp, _ = getJSON(t, srv.URL+"/api/release-scores/nope")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHeadlineRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer()
		defer srv.Close()

		Convey("When a headline test is created", func() {
			resp, body := postJSON(t, srv.URL+"/api/headline-tests", map[string]any{
				"original_headline": "City Budget Approved",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			testID := body["test_id"].(string)
			alts := body["alternatives"].([]any)
			So(alts, ShouldHaveLength, 5)
			So(alts[0].(map[string]any)["angle"], ShouldEqual, "hard_news")

			Convey("Then the audience phase yields one score per variant", func() {
				resp, body := postJSON(t, srv.URL+"/api/headline-tests/"+testID+"/audience", map[string]any{
					"population_id": "pop-1",
				})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				scoreIDs := body["score_ids"].([]any)
				So(scoreIDs, ShouldHaveLength, 6)

				Convey("Then stepping every variant completes the test", func() {
					for _, raw := range scoreIDs {
						resp, body := postJSON(t, srv.URL+"/api/headline-tests/"+testID+"/step", map[string]any{
							"score_id": raw.(string),
						})
						So(resp.StatusCode, ShouldEqual, http.StatusOK)
						So(body["done"], ShouldEqual, true)
					}

					resp, body := getJSON(t, srv.URL+"/api/headline-tests/"+testID)
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					So(body["status"], ShouldEqual, "completed")
					So(body["resolved_variants"], ShouldEqual, 6)
					So(body["winning_headline"], ShouldNotBeEmpty)
				})
			})

			Convey("Then stepping before the audience phase conflicts", func() {
				resp, _ := postJSON(t, srv.URL+"/api/headline-tests/"+testID+"/step", map[string]any{"score_id": "x"})
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the original headline is missing", func() {
			resp, _ := postJSON(t, srv.URL+"/api/headline-tests", map[string]any{})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCampaignRoutes(t *testing.T) {
	Convey("Given the API server with a contact", t, func() {
		srv := newTestServer()
		defer srv.Close()

		resp, body := postJSON(t, srv.URL+"/api/contacts", map[string]any{
			"first_name": "Dana",
			"last_name":  "Reed",
			"email":      "dana@example.com",
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		So(body["contact_id"], ShouldNotBeEmpty)

		Convey("When the same email registers again", func() {
			resp, _ := postJSON(t, srv.URL+"/api/contacts", map[string]any{"email": "dana@example.com"})
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When the email is malformed", func() {
			resp, _ := postJSON(t, srv.URL+"/api/contacts", map[string]any{"email": "not-an-email"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When contacts are listed", func() {
			resp, err := http.Get(srv.URL + "/api/contacts?active=true")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var contacts []map[string]any
			So(json.NewDecoder(resp.Body).Decode(&contacts), ShouldBeNil)
			So(contacts, ShouldHaveLength, 1)
			So(contacts[0]["email"], ShouldEqual, "dana@example.com")
		})

		Convey("When a campaign is created and sent", func() {
			resp, body := postJSON(t, srv.URL+"/api/campaigns", map[string]any{
				"name":    "Launch",
				"subject": "News for {{first_name}}",
				"body":    "Hello {{full_name}}",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			campaignID := body["campaign_id"].(string)
			So(body["status"], ShouldEqual, "draft")

			resp, body = postJSON(t, srv.URL+"/api/campaigns/"+campaignID+"/send", map[string]any{})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "sending")
			So(body["total"], ShouldEqual, 1)

			Convey("Then a second send conflicts", func() {
				resp, _ := postJSON(t, srv.URL+"/api/campaigns/"+campaignID+"/send", map[string]any{})
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("Then the campaign status route reports counters", func() {
				resp, body := getJSON(t, srv.URL+"/api/campaigns/"+campaignID)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["pending"], ShouldEqual, 1)
			})
		})
	})
}

func TestStatsRoute(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer()
		defer srv.Close()

		resp, body := getJSON(t, srv.URL+"/stats")
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		So(body["service"], ShouldEqual, "prsim")
	})
}
