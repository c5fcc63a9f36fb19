// Package simstub is a stand-in for the population simulation API used in
// development and tests. Submitted answers move Queued -> Running ->
// Predicted on a configurable timetable, and the predicted distribution is
// derived deterministically from the question so reruns are stable.
package simstub

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prsim/prsim/pkg/logger"
)

type answer struct {
	id          string
	createdAt   time.Time
	failed      bool
	percentages map[string]float64
}

// Server holds submitted answers and serves the two simulation routes.
type Server struct {
	apiKey     string
	queueDelay time.Duration
	runDelay   time.Duration
	failEvery  int
	now        func() time.Time
	log        logger.Logger

	mu      sync.Mutex
	answers map[string]*answer
	seq     int
}

// New builds a stub server with configuration options.
func New(opts ...Option) *Server {
	s := &Server{
		queueDelay: 2 * time.Second,
		runDelay:   5 * time.Second,
		now:        time.Now,
		answers:    make(map[string]*answer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("simstub")
	}
	return s
}

// Handler returns the routes: POST /v1/answers and GET /v1/answers/{id}.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/answers", s.handleSubmit)
	mux.HandleFunc("GET /v1/answers/{id}", s.handleFetch)
	return mux
}

type submitRequest struct {
	PopulationID string `json:"population_id"`
	Answers      []struct {
		Question      string   `json:"question"`
		AnswerOptions []string `json:"answer_options"`
	} `json:"answers"`
}

type answerData struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Percentages map[string]float64 `json:"simulated_answer_percentages,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.PopulationID == "" || len(req.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "population_id and answers are required")
		return
	}

	ctx := r.Context()
	data := make([]answerData, 0, len(req.Answers))

	s.mu.Lock()
	for _, sub := range req.Answers {
		if sub.Question == "" || len(sub.AnswerOptions) == 0 {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "question and answer_options are required")
			return
		}
		s.seq++
		a := &answer{
			id:          fmt.Sprintf("stub-answer-%d", s.seq),
			createdAt:   s.now(),
			failed:      s.failEvery > 0 && s.seq%s.failEvery == 0,
			percentages: distribution(sub.Question, sub.AnswerOptions),
		}
		s.answers[a.id] = a
		data = append(data, answerData{ID: a.id, Status: "Queued"})
		s.log.Debug(ctx, "accepted answer",
			logger.String("answer_id", a.id),
			logger.String("population_id", req.PopulationID),
			logger.Bool("will_fail", a.failed),
		)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"data": data})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	s.mu.Lock()
	a, ok := s.answers[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown answer id")
		return
	}

	data := answerData{ID: a.id, Status: s.status(a)}
	if data.Status == "Predicted" {
		data.Percentages = a.percentages
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) status(a *answer) string {
	elapsed := s.now().Sub(a.createdAt)
	switch {
	case elapsed < s.queueDelay:
		return "Queued"
	case elapsed < s.queueDelay+s.runDelay:
		return "Running"
	case a.failed:
		return "Failed"
	default:
		return "Predicted"
	}
}

func (s *Server) authorized(r *http.Request) bool {
	return s.apiKey == "" || r.Header.Get("authorization") == s.apiKey
}

// distribution spreads 100 percent across the options, seeded from the
// question text so the same question always predicts the same split.
func distribution(question string, options []string) map[string]float64 {
	h := fnv.New64a()
	h.Write([]byte(question))
	for _, o := range options {
		h.Write([]byte{0})
		h.Write([]byte(o))
	}
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	weights := make([]float64, len(options))
	total := 0.0
	for i := range options {
		w := rng.Float64() + 0.05
		weights[i] = w
		total += w
	}

	out := make(map[string]float64, len(options))
	acc := 0.0
	for i, o := range options {
		pct := math.Round(weights[i]/total*1000) / 10
		if i == len(options)-1 {
			// Absorb rounding drift so the split sums to exactly 100.
			pct = math.Round((100-acc)*10) / 10
		}
		acc += pct
		out[o] = pct
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
