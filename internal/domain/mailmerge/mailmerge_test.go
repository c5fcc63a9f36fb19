package mailmerge_test

import (
	"testing"

	"github.com/prsim/prsim/internal/domain/mailmerge"
	"github.com/prsim/prsim/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApply(t *testing.T) {
	contact := &model.Contact{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.org",
		Organization: "Analytical Engines Ltd",
		JobTitle:     "Programmer",
	}

	Convey("Given a template with every supported variable", t, func() {
		tmpl := "Hi {{first_name}} {{last_name}} ({{full_name}}, {{email}}) of {{organization}}, {{job_title}}"

		Convey("Then every variable is substituted", func() {
			out := mailmerge.Apply(tmpl, contact)
			So(out, ShouldEqual, "Hi Ada Lovelace (Ada Lovelace, ada@example.org) of Analytical Engines Ltd, Programmer")
		})
	})

	Convey("Given an unknown variable", t, func() {
		out := mailmerge.Apply("Dear {{salutation}} {{first_name}}", contact)

		Convey("Then it is left visible", func() {
			So(out, ShouldEqual, "Dear {{salutation}} Ada")
		})
	})

	Convey("Given empty contact fields", t, func() {
		out := mailmerge.Apply("{{first_name}}|{{organization}}|done", &model.Contact{})
		So(out, ShouldEqual, "||done")
	})

	Convey("Given a nil contact", t, func() {
		So(mailmerge.Apply("{{first_name}}", nil), ShouldEqual, "{{first_name}}")
	})
}
