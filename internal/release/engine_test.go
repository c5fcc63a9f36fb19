package release_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/rubric"
	"github.com/prsim/prsim/internal/release"
)

// fakeSim scripts the simulation client. Each submit hands out a fresh
// answer id; poll outcomes are dequeued from results, defaulting to a
// predicted distribution.
type fakeSim struct {
	submits     atomic.Int64
	polls       atomic.Int64
	failSubmits atomic.Int64 // submits to fail before succeeding
	results     []simulation.Result
	defaultRes  simulation.Result
}

func newFakeSim() *fakeSim {
	return &fakeSim{
		defaultRes: simulation.Result{
			OK:          true,
			Status:      simulation.StatusPredicted,
			Percentages: map[string]float64{"5": 60, "4": 25, "3": 15},
		},
	}
}

func (f *fakeSim) Submit(_ context.Context, _, _, _ string, _ []string) simulation.Submission {
	n := f.submits.Add(1)
	if f.failSubmits.Load() >= n {
		return simulation.Submission{Err: "connection refused"}
	}
	return simulation.Submission{OK: true, AnswerID: "ans-" + string(rune('a'+n-1)), Status: simulation.StatusQueued}
}

func (f *fakeSim) PollUntilComplete(_ context.Context, _ string, _ time.Duration) simulation.Result {
	i := int(f.polls.Add(1)) - 1
	if i < len(f.results) {
		return f.results[i]
	}
	return f.defaultRes
}

func TestStartJob(t *testing.T) {
	Convey("Given a release engine", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		eng := release.New(store, newFakeSim())

		Convey("When a valid release is submitted", func() {
			job, err := eng.StartJob(ctx, "  ACME\n\nannounces\ta new widget.  ", "pop-1")

			Convey("Then a pending job exists with cleaned text", func() {
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, model.JobPending)
				So(job.ReleaseText, ShouldEqual, "ACME announces a new widget.")

				stored, err := store.Job(ctx, job.ID)
				So(err, ShouldBeNil)
				So(stored.PopulationID, ShouldEqual, "pop-1")
			})
		})

		Convey("When the release is blank after cleaning", func() {
			_, err := eng.StartJob(ctx, " \n\t ", "pop-1")
			So(errors.Is(err, release.ErrEmptyRelease), ShouldBeTrue)
		})

		Convey("When the release exceeds the limit", func() {
			eng := release.New(store, newFakeSim(), release.WithReleaseLimit(10))
			_, err := eng.StartJob(ctx, strings.Repeat("word ", 10), "pop-1")
			So(errors.Is(err, release.ErrReleaseTooLong), ShouldBeTrue)
		})

		Convey("When the population id is missing", func() {
			_, err := eng.StartJob(ctx, "A release.", "")
			So(errors.Is(err, release.ErrMissingPopulation), ShouldBeTrue)
		})
	})
}

func TestProcessStep(t *testing.T) {
	Convey("Given a started job", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		sim := newFakeSim()
		eng := release.New(store, sim)
		job, err := eng.StartJob(ctx, "ACME announces a new widget.", "pop-1")
		So(err, ShouldBeNil)

		Convey("When a unit resolves on its first step", func() {
			res, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)

			Convey("Then the step reports done with the top-choice score", func() {
				So(err, ShouldBeNil)
				So(res.Done, ShouldBeTrue)
				So(res.Pending, ShouldBeFalse)
				So(*res.Score, ShouldEqual, 5)

				updated, err := store.Job(ctx, job.ID)
				So(err, ShouldBeNil)
				So(updated.Status, ShouldEqual, model.JobRunning)
				So(updated.TotalScore, ShouldEqual, 5)
				So(updated.ProcessedCount, ShouldEqual, 1)
			})

			Convey("Then stepping the same unit again short-circuits", func() {
				res2, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)
				So(err, ShouldBeNil)
				So(res2.Done, ShouldBeTrue)
				So(*res2.Score, ShouldEqual, 5)
				So(sim.submits.Load(), ShouldEqual, 1)
				So(sim.polls.Load(), ShouldEqual, 1)

				updated, _ := store.Job(ctx, job.ID)
				So(updated.TotalScore, ShouldEqual, 5)
				So(updated.ProcessedCount, ShouldEqual, 1)
			})
		})

		Convey("When the polling window times out", func() {
			sim.results = []simulation.Result{{TimedOut: true, Status: simulation.StatusRunning}}
			res, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)
			So(err, ShouldBeNil)
			So(res.Pending, ShouldBeTrue)
			So(res.Done, ShouldBeFalse)

			Convey("Then the next step resumes the same answer without resubmitting", func() {
				res2, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)
				So(err, ShouldBeNil)
				So(res2.Done, ShouldBeTrue)
				So(sim.submits.Load(), ShouldEqual, 1)
				So(sim.polls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When submission fails transiently", func() {
			sim.failSubmits.Store(1)
			res, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)
			So(err, ShouldBeNil)
			So(res.Pending, ShouldBeTrue)

			q, ok, err := store.Question(ctx, job.ID, 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(q.AnswerID, ShouldBeEmpty)

			Convey("Then the next step submits afresh and resolves", func() {
				res2, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)
				So(err, ShouldBeNil)
				So(res2.Done, ShouldBeTrue)
				So(sim.submits.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the simulation marks the answer Failed", func() {
			sim.results = []simulation.Result{{OK: true, Status: simulation.StatusFailed}}
			res, err := eng.ProcessStep(ctx, job.ID, 1, time.Second)

			Convey("Then the unit resolves with the midpoint fallback", func() {
				So(err, ShouldBeNil)
				So(res.Done, ShouldBeTrue)
				So(*res.Score, ShouldEqual, 3)
			})
		})

		Convey("When the question number is out of range", func() {
			_, err := eng.ProcessStep(ctx, job.ID, 31, time.Second)
			So(errors.Is(err, rubric.ErrQuestionOutOfRange), ShouldBeTrue)

			_, err = eng.ProcessStep(ctx, job.ID, 0, time.Second)
			So(errors.Is(err, rubric.ErrQuestionOutOfRange), ShouldBeTrue)
		})

		Convey("When the job id is unknown", func() {
			_, err := eng.ProcessStep(ctx, "missing", 1, time.Second)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestFullJobRun(t *testing.T) {
	Convey("Given a job stepped through every unit", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		eng := release.New(store, newFakeSim())
		job, err := eng.StartJob(ctx, "ACME announces a new widget.", "pop-1")
		So(err, ShouldBeNil)

		for n := 1; n <= rubric.Size; n++ {
			res, err := eng.ProcessStep(ctx, job.ID, n, time.Second)
			So(err, ShouldBeNil)
			So(res.Done, ShouldBeTrue)
		}

		Convey("Then the job is done with consistent totals", func() {
			progress, err := eng.Status(ctx, job.ID)
			So(err, ShouldBeNil)
			So(progress.Status, ShouldEqual, string(model.JobDone))
			So(progress.ProcessedCount, ShouldEqual, 30)
			So(progress.TotalScore, ShouldEqual, 150)
			So(progress.CompletionPercent, ShouldEqual, 100.0)
			So(progress.ScorePercent, ShouldEqual, 83.3)

			So(progress.Categories, ShouldHaveLength, rubric.CategoryCount)
			sum := 0
			for _, c := range progress.Categories {
				So(c.Subtotal, ShouldEqual, 30)
				sum += c.Subtotal
			}
			So(sum, ShouldEqual, progress.TotalScore)
		})

		Convey("Then no unit is left unresolved", func() {
			_, ok, err := eng.NextUnresolved(ctx, job.ID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestNextUnresolved(t *testing.T) {
	Convey("Given a job with the first two units resolved", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		eng := release.New(store, newFakeSim())
		job, err := eng.StartJob(ctx, "ACME announces a new widget.", "pop-1")
		So(err, ShouldBeNil)

		for n := 1; n <= 2; n++ {
			_, err := eng.ProcessStep(ctx, job.ID, n, time.Second)
			So(err, ShouldBeNil)
		}

		Convey("Then the third unit is next", func() {
			n, ok, err := eng.NextUnresolved(ctx, job.ID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, 3)
		})
	})
}
