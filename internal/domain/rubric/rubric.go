// Package rubric defines the ordered catalog of scoring questions.
//
// The catalog is always 5 categories of 6 questions with a stable global
// numbering derived from (category order, in-category order). The scoring
// engine never branches on where the catalog came from: one Provider is
// chosen at deployment time (static or file-backed).
package rubric

import (
	"fmt"
	"strings"
)

const (
	// CategoryCount and QuestionsPerCategory fix the catalog shape.
	CategoryCount        = 5
	QuestionsPerCategory = 6

	// Size is the total number of rubric questions.
	Size = CategoryCount * QuestionsPerCategory

	// MinScore and MaxScore bound a single question's score.
	MinScore = 1
	MaxScore = 6

	// MaxTotal is the highest achievable job total.
	MaxTotal = Size * MaxScore
)

// Category is one rubric grouping.
type Category struct {
	Key         string
	DisplayName string
	Questions   []string
}

// Question is one catalog entry with its global position.
type Question struct {
	Number          int // 1..Size
	CategoryKey     string
	CategoryDisplay string
	Text            string
}

// Provider enumerates the catalog deterministically.
type Provider interface {
	// Categories returns the ordered category list.
	Categories() []Category

	// Question resolves a global question number (1..Size).
	Question(number int) (Question, error)

	// Size returns the total question count.
	Size() int
}

// catalog implements Provider over an ordered category slice.
type catalog struct {
	categories []Category
}

func newCatalog(categories []Category) (*catalog, error) {
	if len(categories) != CategoryCount {
		return nil, fmt.Errorf("%w: got %d categories, want %d", ErrInvalidCatalog, len(categories), CategoryCount)
	}
	for _, c := range categories {
		if c.Key == "" {
			return nil, fmt.Errorf("%w: category with empty key", ErrInvalidCatalog)
		}
		if len(c.Questions) != QuestionsPerCategory {
			return nil, fmt.Errorf("%w: category %q has %d questions, want %d",
				ErrInvalidCatalog, c.Key, len(c.Questions), QuestionsPerCategory)
		}
	}
	return &catalog{categories: categories}, nil
}

func (c *catalog) Categories() []Category { return c.categories }

func (c *catalog) Size() int { return len(c.categories) * QuestionsPerCategory }

func (c *catalog) Question(number int) (Question, error) {
	if number < 1 || number > c.Size() {
		return Question{}, fmt.Errorf("%w: %d", ErrQuestionOutOfRange, number)
	}
	catIdx := (number - 1) / QuestionsPerCategory
	inCat := (number - 1) % QuestionsPerCategory
	cat := c.categories[catIdx]
	return Question{
		Number:          number,
		CategoryKey:     cat.Key,
		CategoryDisplay: cat.DisplayName,
		Text:            cat.Questions[inCat],
	}, nil
}

// FullQuestion binds a rubric question to the (already cleaned and
// truncated) release text for submission.
func FullQuestion(q Question, releaseText string) string {
	var b strings.Builder
	b.WriteString("Please read the following press release ")
	b.WriteString(releaseText)
	b.WriteString(" and consider: ")
	b.WriteString(q.Text)
	return b.String()
}
