package devapi

import (
	"context"

	"github.com/pkg/errors"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

// ErrNothingToGenerate means the generator has no content for a topic.
var ErrNothingToGenerate = errors.New("no content for topic")

// Generator produces new items for a chapter. The dev server never calls a
// model; the default Bank hands out a fixed reserve per chapter title.
type Generator interface {
	MCQs(ctx context.Context, t Topic) ([]api.MCQ, error)
	Flashcards(ctx context.Context, t Topic) ([]api.Flashcard, error)
}

type Bank struct {
	mcqs       map[string][]api.MCQ
	flashcards map[string][]api.Flashcard
}

func (b *Bank) MCQs(_ context.Context, t Topic) ([]api.MCQ, error) {
	list := b.mcqs[t.Chapter]
	if len(list) == 0 {
		return nil, errors.Wrap(ErrNothingToGenerate, t.Chapter)
	}
	return append([]api.MCQ(nil), list...), nil
}

func (b *Bank) Flashcards(_ context.Context, t Topic) ([]api.Flashcard, error) {
	list := b.flashcards[t.Chapter]
	if len(list) == 0 {
		return nil, errors.Wrap(ErrNothingToGenerate, t.Chapter)
	}
	return append([]api.Flashcard(nil), list...), nil
}

// DefaultBank is the reserve served by the generation endpoints.
func DefaultBank() *Bank {
	return &Bank{
		mcqs: map[string][]api.MCQ{
			"Polynomials": {
				mcq("If one zero of x² - 3x + k is 1, then k is:", "2", "-2", "1", "3", "A"),
				mcq("Sum of the zeroes of x² - 5x + 6 is:", "6", "-5", "5", "-6", "C"),
				mcq("Product of the zeroes of 2x² + 3x - 4 is:", "-2", "2", "3/2", "-3/2", "A"),
			},
			"Quadratic Equations": {
				mcq("Roots of x² - 5x + 6 = 0 are:", "2 and 3", "-2 and -3", "1 and 6", "-1 and 6", "A"),
				mcq("Discriminant of 2x² - 4x + 3 is:", "-8", "8", "4", "-4", "A"),
				mcq("If the discriminant is positive, the roots are:", "real and distinct", "real and equal", "not real", "both zero", "A"),
				mcq("Which of these is a quadratic equation?", "2x + 3 = 0", "x² + 3x = 0", "x³ - x = 0", "1/x = 4", "B"),
				mcq("Sum of the roots of x² + 7x + 10 = 0 is:", "7", "-7", "10", "-10", "B"),
			},
		},
		flashcards: map[string][]api.Flashcard{
			"Polynomials": {
				card("Degree of a polynomial", "The highest power of the variable."),
				card("Zero of a polynomial", "A value of x for which p(x) = 0."),
				card("Sum of zeroes of ax² + bx + c", "-b/a"),
				card("Product of zeroes of ax² + bx + c", "c/a"),
				card("Division algorithm for polynomials", "p(x) = g(x)q(x) + r(x), with deg r < deg g"),
			},
			"Quadratic Equations": {
				card("Standard form", "ax² + bx + c = 0, a ≠ 0"),
				card("Discriminant", "b² - 4ac"),
				card("Quadratic formula", "x = (-b ± √(b² - 4ac)) / 2a"),
			},
		},
	}
}
