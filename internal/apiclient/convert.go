package apiclient

import (
	"strings"

	"github.com/mind-engage/mindengage-revise/internal/quiz"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

// Items turns server MCQs into quiz items with choices A to D.
func Items(ms []api.MCQ) []quiz.Item {
	out := make([]quiz.Item, 0, len(ms))
	for _, m := range ms {
		out = append(out, quiz.Item{
			ID:     m.ID,
			Prompt: m.Question,
			Choices: []quiz.Choice{
				{Label: quiz.LabelA, Text: m.OptionA},
				{Label: quiz.LabelB, Text: m.OptionB},
				{Label: quiz.LabelC, Text: m.OptionC},
				{Label: quiz.LabelD, Text: m.OptionD},
			},
			Correct: quiz.Label(strings.ToUpper(strings.TrimSpace(m.Correct))),
		})
	}
	return out
}

func Cards(fs []api.Flashcard) []quiz.Card {
	out := make([]quiz.Card, 0, len(fs))
	for _, f := range fs {
		out = append(out, quiz.Card{ID: f.ID, Front: f.Question, Back: f.Answer})
	}
	return out
}
