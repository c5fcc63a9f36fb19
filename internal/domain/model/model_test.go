package model_test

import (
	"testing"

	"github.com/prsim/prsim/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoringJobPercentages(t *testing.T) {
	Convey("Given a job with 90 of 180 points across 15 of 30 units", t, func() {
		job := &model.ScoringJob{TotalScore: 90, ProcessedCount: 15}

		Convey("Then score percentage is 50.0", func() {
			So(job.ScorePercentage(180), ShouldEqual, 50.0)
		})

		Convey("And completion percentage is 50.0", func() {
			So(job.CompletionPercentage(30), ShouldEqual, 50.0)
		})

		Convey("And a zero denominator yields zero, not a panic", func() {
			So(job.ScorePercentage(0), ShouldEqual, 0)
			So(job.CompletionPercentage(0), ShouldEqual, 0)
		})
	})

	Convey("Given an uneven total the percentage is rounded to one decimal", t, func() {
		job := &model.ScoringJob{TotalScore: 100}
		// 100/180*100 = 55.555... -> 55.6
		So(job.ScorePercentage(180), ShouldEqual, 55.6)
	})
}

func TestJobStatusTerminal(t *testing.T) {
	Convey("Given the four job states", t, func() {
		So(model.JobPending.Terminal(), ShouldBeFalse)
		So(model.JobRunning.Terminal(), ShouldBeFalse)
		So(model.JobDone.Terminal(), ShouldBeTrue)
		So(model.JobFailed.Terminal(), ShouldBeTrue)
	})
}

func TestCampaignPendingCount(t *testing.T) {
	Convey("Given a campaign with partial progress", t, func() {
		c := &model.Campaign{TotalRecipients: 10, SentCount: 6, FailedCount: 1}
		So(c.PendingCount(), ShouldEqual, 3)

		Convey("And counters past the total clamp to zero", func() {
			c.SentCount = 12
			So(c.PendingCount(), ShouldEqual, 0)
		})
	})
}

func TestContactFullName(t *testing.T) {
	Convey("Given contacts with partial names", t, func() {
		So((&model.Contact{FirstName: "Ada", LastName: "Lovelace"}).FullName(), ShouldEqual, "Ada Lovelace")
		So((&model.Contact{FirstName: "Ada"}).FullName(), ShouldEqual, "Ada")
		So((&model.Contact{LastName: "Lovelace"}).FullName(), ShouldEqual, "Lovelace")
	})
}

func TestAngleForOrder(t *testing.T) {
	Convey("Given the five generation slots", t, func() {
		So(model.AngleForOrder(1), ShouldEqual, model.AngleHardNews)
		So(model.AngleForOrder(2), ShouldEqual, model.AngleHumanInterest)
		So(model.AngleForOrder(3), ShouldEqual, model.AngleConflict)
		So(model.AngleForOrder(4), ShouldEqual, model.AngleLocal)
		So(model.AngleForOrder(5), ShouldEqual, model.AngleTrend)

		Convey("And out-of-range slots fall back to hard news", func() {
			So(model.AngleForOrder(9), ShouldEqual, model.AngleHardNews)
		})
	})
}
