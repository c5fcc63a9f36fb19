// Package simulation wraps the remote population simulation API. The caller
// submits a question against a population, receives an answer id, and polls
// until the simulation predicts an answer distribution.
//
// Transport and decoding problems are reported inside the returned values,
// not as Go errors: a flaky upstream must leave the calling work unit
// retryable, never kill it.
package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

// Status is the simulation's answer lifecycle.
type Status string

const (
	StatusQueued    Status = "Queued"
	StatusRunning   Status = "Running"
	StatusPredicted Status = "Predicted"
	StatusFailed    Status = "Failed"
)

// QuestionTypeMultipleChoice is the only question type the service submits.
const QuestionTypeMultipleChoice = "multiple_choice"

// Submission is the outcome of one submit call. When OK is false the unit
// stays unsubmitted and the caller retries on a later step.
type Submission struct {
	OK       bool
	AnswerID string
	Status   Status
	Err      string
}

// Result is the outcome of a status fetch or a polling window. TimedOut
// marks a window that expired with the answer still in flight; it is a
// normal outcome, not a failure.
type Result struct {
	OK          bool
	TimedOut    bool
	Status      Status
	Percentages map[string]float64
	Err         string
}

// Client talks to one simulation API endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	log          logger.Logger
}

// New builds a Client for the given base URL and API key.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Second,
		log:          logger.Named("simulation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	PopulationID string         `json:"population_id"`
	Answers      []answerSubmit `json:"answers"`
}

type answerSubmit struct {
	Question        string          `json:"question"`
	QuestionOptions questionOptions `json:"question_options"`
	AnswerOptions   []string        `json:"answer_options"`
}

type questionOptions struct {
	QuestionType string `json:"question_type"`
}

type submitResponse struct {
	Data []answerData `json:"data"`
}

type fetchResponse struct {
	Data answerData `json:"data"`
}

type answerData struct {
	ID          string             `json:"id"`
	Status      Status             `json:"status"`
	Percentages map[string]float64 `json:"simulated_answer_percentages"`
}

// Submit posts one question to the population and returns the answer id to
// poll. Any failure comes back as Submission{OK: false}.
func (c *Client) Submit(ctx context.Context, populationID, question, questionType string, answerOptions []string) Submission {
	body := submitRequest{
		PopulationID: populationID,
		Answers: []answerSubmit{{
			Question:        question,
			QuestionOptions: questionOptions{QuestionType: questionType},
			AnswerOptions:   answerOptions,
		}},
	}

	start := time.Now()
	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/answers", body, &resp); err != nil {
		metrics.RecordSimulationSubmissionError()
		c.log.Warn(ctx, "submit failed", logger.Error(err))
		return Submission{Err: err.Error()}
	}
	metrics.RecordSimulationSubmission()
	metrics.RecordSimulationLatency(float64(time.Since(start).Milliseconds()))

	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		metrics.RecordSimulationSubmissionError()
		return Submission{Err: "submit response carried no answer id"}
	}
	return Submission{OK: true, AnswerID: resp.Data[0].ID, Status: resp.Data[0].Status}
}

// FetchStatus reads the current state of a submitted answer.
func (c *Client) FetchStatus(ctx context.Context, answerID string) Result {
	var resp fetchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/answers/"+answerID, nil, &resp); err != nil {
		return Result{Err: err.Error()}
	}
	metrics.RecordSimulationPoll()
	return Result{OK: true, Status: resp.Data.Status, Percentages: resp.Data.Percentages}
}

// PollUntilComplete polls the answer at the client's interval until it is
// Predicted or Failed, the window expires, or ctx is cancelled. Window
// expiry returns Result{TimedOut: true}; the answer keeps running upstream
// and a later call resumes it.
func (c *Client) PollUntilComplete(ctx context.Context, answerID string, maxWait time.Duration) Result {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		res := c.FetchStatus(ctx, answerID)
		if res.OK && (res.Status == StatusPredicted || res.Status == StatusFailed) {
			return res
		}
		if !res.OK {
			c.log.Debug(ctx, "poll fetch failed", logger.String("answer_id", answerID), logger.String("error", res.Err))
		}
		if time.Now().After(deadline) {
			metrics.RecordSimulationPollTimeout()
			return Result{TimedOut: true, Status: res.Status}
		}
		select {
		case <-ctx.Done():
			return Result{Err: ctx.Err().Error()}
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("authorization", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call simulation api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("simulation api returned %d: %s", resp.StatusCode, string(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
