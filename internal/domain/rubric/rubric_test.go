package rubric_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prsim/prsim/internal/domain/rubric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStaticCatalogShape(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		p := rubric.Static()

		Convey("Then it holds 5 categories of 6 questions", func() {
			So(p.Size(), ShouldEqual, 30)
			cats := p.Categories()
			So(len(cats), ShouldEqual, 5)
			for _, c := range cats {
				So(len(c.Questions), ShouldEqual, 6)
				So(c.Key, ShouldNotBeEmpty)
				So(c.DisplayName, ShouldNotBeEmpty)
			}
		})

		Convey("And the category order is fixed", func() {
			cats := p.Categories()
			So(cats[0].Key, ShouldEqual, "source_credibility")
			So(cats[1].Key, ShouldEqual, "accuracy_evidence")
			So(cats[2].Key, ShouldEqual, "newsworthiness")
			So(cats[3].Key, ShouldEqual, "bias_intent")
			So(cats[4].Key, ShouldEqual, "practicality_next_steps")
		})
	})
}

func TestGlobalNumbering(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		p := rubric.Static()

		Convey("Then numbering is stable across the category boundaries", func() {
			q1, err := p.Question(1)
			So(err, ShouldBeNil)
			So(q1.CategoryKey, ShouldEqual, "source_credibility")

			q6, err := p.Question(6)
			So(err, ShouldBeNil)
			So(q6.CategoryKey, ShouldEqual, "source_credibility")

			q7, err := p.Question(7)
			So(err, ShouldBeNil)
			So(q7.CategoryKey, ShouldEqual, "accuracy_evidence")

			q30, err := p.Question(30)
			So(err, ShouldBeNil)
			So(q30.CategoryKey, ShouldEqual, "practicality_next_steps")
			So(q30.Number, ShouldEqual, 30)
		})

		Convey("And every number maps to its category's own question text", func() {
			cats := p.Categories()
			n := 1
			for _, c := range cats {
				for _, text := range c.Questions {
					q, err := p.Question(n)
					So(err, ShouldBeNil)
					So(q.Text, ShouldEqual, text)
					n++
				}
			}
		})

		Convey("And out-of-range numbers are rejected", func() {
			_, err := p.Question(0)
			So(err, ShouldNotBeNil)
			_, err = p.Question(31)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFullQuestion(t *testing.T) {
	Convey("Given a question and release text", t, func() {
		p := rubric.Static()
		q, err := p.Question(1)
		So(err, ShouldBeNil)

		full := rubric.FullQuestion(q, "ACME launches a rocket.")
		So(full, ShouldStartWith, "Please read the following press release ACME launches a rocket. and consider: ")
		So(full, ShouldEndWith, q.Text)
	})
}

func TestFromFile(t *testing.T) {
	Convey("Given a well-formed rubric file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "rubric.yaml")

		content := "categories:\n"
		keys := []string{"a", "b", "c", "d", "e"}
		for _, k := range keys {
			content += "  - key: " + k + "\n    display_name: Cat " + k + "\n    questions:\n"
			for i := 0; i < 6; i++ {
				content += "      - question " + k + "\n"
			}
		}
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("Then it loads with 30 questions", func() {
			p, err := rubric.FromFile(path)
			So(err, ShouldBeNil)
			So(p.Size(), ShouldEqual, 30)
		})
	})

	Convey("Given a file with a short category", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "rubric.yaml")
		content := "categories:\n  - key: only\n    display_name: Only\n    questions:\n      - one question\n"
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("Then loading is rejected", func() {
			_, err := rubric.FromFile(path)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := rubric.FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}
