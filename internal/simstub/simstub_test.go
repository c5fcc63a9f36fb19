package simstub_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/domain/scoring"
	"github.com/prsim/prsim/internal/simstub"
)

func TestSubmitAndLifecycle(t *testing.T) {
	Convey("Given a stub with a controllable clock", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		stub := simstub.New(
			simstub.WithClock(func() time.Time { return now }),
			simstub.WithQueueDelay(2*time.Second),
			simstub.WithRunDelay(5*time.Second),
		)
		srv := httptest.NewServer(stub.Handler())
		defer srv.Close()
		client := simulation.New(srv.URL, "test-key", simulation.WithPollInterval(time.Millisecond))
		ctx := context.Background()

		Convey("When a question is submitted", func() {
			sub := client.Submit(ctx, "pop-1", "How do you rate this release?", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
			So(sub.OK, ShouldBeTrue)
			So(sub.AnswerID, ShouldNotBeEmpty)
			So(sub.Status, ShouldEqual, simulation.StatusQueued)

			Convey("Then the answer advances on the timetable", func() {
				res := client.FetchStatus(ctx, sub.AnswerID)
				So(res.OK, ShouldBeTrue)
				So(res.Status, ShouldEqual, simulation.StatusQueued)

				now = now.Add(3 * time.Second)
				res = client.FetchStatus(ctx, sub.AnswerID)
				So(res.Status, ShouldEqual, simulation.StatusRunning)
				So(res.Percentages, ShouldBeEmpty)

				now = now.Add(5 * time.Second)
				res = client.FetchStatus(ctx, sub.AnswerID)
				So(res.Status, ShouldEqual, simulation.StatusPredicted)

				Convey("And the prediction covers every option and sums to 100", func() {
					So(res.Percentages, ShouldHaveLength, len(scoring.ChoiceOptions1to6))
					sum := 0.0
					for _, opt := range scoring.ChoiceOptions1to6 {
						So(res.Percentages, ShouldContainKey, opt)
						sum += res.Percentages[opt]
					}
					So(sum, ShouldAlmostEqual, 100, 0.01)
				})

				Convey("And the same question predicts the same split", func() {
					again := client.Submit(ctx, "pop-1", "How do you rate this release?", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
					So(again.OK, ShouldBeTrue)
					now = now.Add(10 * time.Second)
					res2 := client.FetchStatus(ctx, again.AnswerID)
					So(res2.Status, ShouldEqual, simulation.StatusPredicted)
					So(res2.Percentages, ShouldResemble, res.Percentages)
				})
			})
		})

		Convey("When the answer id is unknown", func() {
			res := client.FetchStatus(ctx, "stub-answer-999")
			So(res.OK, ShouldBeFalse)
			So(res.Err, ShouldContainSubstring, "404")
		})

		Convey("When the submission is incomplete", func() {
			sub := client.Submit(ctx, "", "q", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
			So(sub.OK, ShouldBeFalse)
			So(sub.Err, ShouldContainSubstring, "400")
		})
	})
}

func TestAPIKeyEnforcement(t *testing.T) {
	Convey("Given a stub that requires an api key", t, func() {
		stub := simstub.New(simstub.WithAPIKey("secret"))
		srv := httptest.NewServer(stub.Handler())
		defer srv.Close()

		Convey("Then a wrong key is rejected", func() {
			client := simulation.New(srv.URL, "wrong")
			sub := client.Submit(context.Background(), "pop-1", "q", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
			So(sub.OK, ShouldBeFalse)
			So(sub.Err, ShouldContainSubstring, "401")
		})

		Convey("Then the right key is accepted", func() {
			client := simulation.New(srv.URL, "secret")
			sub := client.Submit(context.Background(), "pop-1", "q", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
			So(sub.OK, ShouldBeTrue)
		})
	})
}

func TestFailEvery(t *testing.T) {
	Convey("Given a stub where every second answer fails", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		stub := simstub.New(
			simstub.WithClock(func() time.Time { return now }),
			simstub.WithQueueDelay(0),
			simstub.WithRunDelay(0),
			simstub.WithFailEvery(2),
		)
		srv := httptest.NewServer(stub.Handler())
		defer srv.Close()
		client := simulation.New(srv.URL, "k")
		ctx := context.Background()

		Convey("Then statuses alternate Predicted and Failed", func() {
			first := client.Submit(ctx, "pop-1", "q1", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
			second := client.Submit(ctx, "pop-1", "q2", simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)

			So(client.FetchStatus(ctx, first.AnswerID).Status, ShouldEqual, simulation.StatusPredicted)
			So(client.FetchStatus(ctx, second.AnswerID).Status, ShouldEqual, simulation.StatusFailed)
		})
	})
}
