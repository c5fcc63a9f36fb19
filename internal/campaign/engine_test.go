package campaign_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/prsim/prsim/internal/adapters/mq/queue"
	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/campaign"
	"github.com/prsim/prsim/internal/domain/model"
)

type captureQueue struct {
	items  []queue.Dispatch
	refuse bool
}

func (c *captureQueue) Enqueue(_ context.Context, d queue.Dispatch) bool {
	if c.refuse {
		return false
	}
	c.items = append(c.items, d)
	return true
}

func seedContacts(ctx context.Context, eng *campaign.Engine) []model.Contact {
	a, _ := eng.CreateContact(ctx, model.Contact{FirstName: "Dana", LastName: "Reed", Email: "dana@example.com", Organization: "Daily Ledger", JobTitle: "Editor"})
	b, _ := eng.CreateContact(ctx, model.Contact{FirstName: "Lee", Email: "lee@example.com"})
	return []model.Contact{a, b}
}

func TestCreateContact(t *testing.T) {
	Convey("Given a campaign engine", t, func() {
		ctx := context.Background()
		eng := campaign.New(repository.NewMemStore(), &captureQueue{})

		Convey("When a contact is created", func() {
			c, err := eng.CreateContact(ctx, model.Contact{FirstName: "Dana", Email: " dana@example.com "})

			Convey("Then it is stored active with a trimmed email", func() {
				So(err, ShouldBeNil)
				So(c.ID, ShouldNotBeEmpty)
				So(c.Active, ShouldBeTrue)
				So(c.Email, ShouldEqual, "dana@example.com")
			})
		})

		Convey("When the email is missing", func() {
			_, err := eng.CreateContact(ctx, model.Contact{FirstName: "Dana"})
			So(errors.Is(err, campaign.ErrMissingEmail), ShouldBeTrue)
		})
	})
}

func TestCreateCampaign(t *testing.T) {
	Convey("Given a campaign engine", t, func() {
		ctx := context.Background()
		eng := campaign.New(repository.NewMemStore(), &captureQueue{})

		Convey("When a campaign is created", func() {
			c, err := eng.CreateCampaign(ctx, "Launch", "News for {{first_name}}", "Hello {{full_name}},\n\nBig news.")
			So(err, ShouldBeNil)
			So(c.Status, ShouldEqual, model.CampaignDraft)
		})

		Convey("When fields are missing", func() {
			_, err := eng.CreateCampaign(ctx, "", "s", "b")
			So(errors.Is(err, campaign.ErrMissingName), ShouldBeTrue)
			_, err = eng.CreateCampaign(ctx, "n", " ", "b")
			So(errors.Is(err, campaign.ErrMissingSubject), ShouldBeTrue)
			_, err = eng.CreateCampaign(ctx, "n", "s", "")
			So(errors.Is(err, campaign.ErrMissingBody), ShouldBeTrue)
		})
	})
}

func TestSend(t *testing.T) {
	Convey("Given a draft campaign and two active contacts", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		q := &captureQueue{}
		eng := campaign.New(store, q)
		seedContacts(ctx, eng)
		c, err := eng.CreateCampaign(ctx, "Launch", "News for {{first_name}}", "Hello {{full_name}} ({{email}})")
		So(err, ShouldBeNil)

		Convey("When the campaign is sent to all active contacts", func() {
			recipients, err := eng.Send(ctx, c.ID, nil)

			Convey("Then each recipient is personalized and enqueued", func() {
				So(err, ShouldBeNil)
				So(recipients, ShouldHaveLength, 2)
				So(q.items, ShouldHaveLength, 2)
				So(q.items[0].Subject, ShouldEqual, "News for Dana")
				So(q.items[0].Body, ShouldEqual, "Hello Dana Reed (dana@example.com)")
				So(q.items[1].Subject, ShouldEqual, "News for Lee")
				So(q.items[1].Body, ShouldEqual, "Hello Lee (lee@example.com)")

				counts, err := eng.Status(ctx, c.ID)
				So(err, ShouldBeNil)
				So(counts.Status, ShouldEqual, string(model.CampaignSending))
				So(counts.Total, ShouldEqual, 2)
				So(counts.Pending, ShouldEqual, 2)
			})

			Convey("Then sending again is rejected", func() {
				_, err := eng.Send(ctx, c.ID, nil)
				So(errors.Is(err, campaign.ErrNotDraft), ShouldBeTrue)
			})
		})

		Convey("When the dispatch queue refuses everything", func() {
			q.refuse = true
			recipients, err := eng.Send(ctx, c.ID, nil)
			So(err, ShouldBeNil)
			So(recipients, ShouldHaveLength, 2)

			Convey("Then every recipient fails and the campaign terminates", func() {
				counts, err := eng.Status(ctx, c.ID)
				So(err, ShouldBeNil)
				So(counts.Failed, ShouldEqual, 2)
				So(counts.Status, ShouldEqual, string(model.CampaignFailed))
			})
		})

		Convey("When there is nobody to send to", func() {
			emptyStore := repository.NewMemStore()
			eng2 := campaign.New(emptyStore, q)
			c2, err := eng2.CreateCampaign(ctx, "Nobody", "s", "b")
			So(err, ShouldBeNil)
			_, err = eng2.Send(ctx, c2.ID, nil)
			So(errors.Is(err, campaign.ErrNoRecipients), ShouldBeTrue)
		})
	})
}
