package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/simulation"
	service "github.com/prsim/prsim/internal/app"
	"github.com/prsim/prsim/internal/config"
)

type predictedSim struct{}

func (predictedSim) Submit(_ context.Context, _, _, _ string, _ []string) simulation.Submission {
	return simulation.Submission{OK: true, AnswerID: "ans-1", Status: simulation.StatusQueued}
}

func (predictedSim) PollUntilComplete(_ context.Context, _ string, _ time.Duration) simulation.Result {
	return simulation.Result{
		OK:          true,
		Status:      simulation.StatusPredicted,
		Percentages: map[string]float64{"4": 80, "2": 20},
	}
}

type staticGen struct{}

func (staticGen) GenerateHeadlines(_ context.Context, _, _ string, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Headline %d", i+1)
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.WorkerCount = 1
	cfg.SchedulerSpec = "" // ticks driven by tests, not a timer
	return cfg
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service over the in-memory store", t, func() {
		svc := service.New(testConfig(),
			service.WithSimulator(predictedSim{}),
			service.WithGenerator(staticGen{}),
		)
		ctx := context.Background()

		Convey("When it starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop(ctx)

			Convey("Then the engines are wired", func() {
				So(svc.Releases(), ShouldNotBeNil)
				So(svc.Headlines(), ShouldNotBeNil)
				So(svc.Campaigns(), ShouldNotBeNil)
			})

			Convey("Then a second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then a scoring job runs end to end through the wiring", func() {
				job, err := svc.Releases().StartJob(ctx, "ACME announces a new widget.", "pop-1")
				So(err, ShouldBeNil)

				res, err := svc.Releases().ProcessStep(ctx, job.ID, 1, 0)
				So(err, ShouldBeNil)
				So(res.Done, ShouldBeTrue)
				So(*res.Score, ShouldEqual, 4)
			})

			Convey("Then stats reflect the running components", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["store"], ShouldEqual, config.StoreMemory)
				So(stats["worker_count"], ShouldEqual, 1)
				So(stats["dispatch_queue_length"], ShouldEqual, 0)
			})
		})

		Convey("When it stops without starting", func() {
			So(func() { svc.Stop(ctx) }, ShouldNotPanic)

			Convey("Then stats only carry configuration", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "dispatch_queue_length")
			})
		})
	})
}

func TestServiceSchedulerSpec(t *testing.T) {
	Convey("Given a service with a broken scheduler spec", t, func() {
		cfg := testConfig()
		cfg.SchedulerSpec = "not a cron spec"
		svc := service.New(cfg,
			service.WithSimulator(predictedSim{}),
			service.WithGenerator(staticGen{}),
		)

		Convey("Then start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestServiceRubricFile(t *testing.T) {
	Convey("Given a config pointing at a missing rubric file", t, func() {
		cfg := testConfig()
		cfg.RubricFile = "/does/not/exist.yaml"
		svc := service.New(cfg,
			service.WithSimulator(predictedSim{}),
			service.WithGenerator(staticGen{}),
		)

		Convey("Then start fails before anything launches", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}
