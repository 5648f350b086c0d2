package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
	"github.com/mind-engage/mindengage-revise/internal/loader"
	"github.com/mind-engage/mindengage-revise/internal/quiz"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type cardsLoadedMsg struct {
	to    string
	cards []api.Flashcard
	err   error
}

func (m cardsLoadedMsg) target() string { return m.to }
func (m cardsLoadedMsg) failed() error  { return m.err }

// FlashcardsScreen walks a chapter's deck. Stored cards are used when the
// chapter has any; otherwise cards are generated.
type FlashcardsScreen struct {
	base
	chapter loader.Named

	phase   phase
	message string
	deck    *quiz.Deck
	cards   []quiz.Card
}

func NewFlashcards(deps *Deps, chapter loader.Named) *FlashcardsScreen {
	return &FlashcardsScreen{base: newBase(deps), chapter: chapter}
}

func (s *FlashcardsScreen) Title() string    { return s.chapter.Name + " · Flashcards" }
func (s *FlashcardsScreen) Init() tea.Cmd    { return s.load() }
func (s *FlashcardsScreen) Deck() *quiz.Deck { return s.deck }

func (s *FlashcardsScreen) load() tea.Cmd {
	s.phase, s.message, s.deck = phaseLoading, "", nil
	to, deps, id := s.renew(), s.deps, s.chapter.ID
	fetch := func(ctx context.Context, _ string) ([]api.Flashcard, error) {
		cards, err := deps.API.Flashcards(ctx, id)
		if err != nil || len(cards) > 0 {
			return cards, err
		}
		return deps.API.GenerateFlashcards(ctx, id)
	}
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		res, err := loader.Load(ctx, fmt.Sprintf("flashcards/%d", id), fetch,
			loader.Policy[api.Flashcard]{IsRateLimited: apiclient.IsRateLimited})
		return cardsLoadedMsg{to: to, cards: res.Items, err: err}
	}
}

func (s *FlashcardsScreen) KeyHints() []KeyHint {
	switch {
	case s.phase == phaseUnavailable:
		return []KeyHint{{Key: "r", Description: "Try again"}, {Key: "esc", Description: "Go back"}}
	case s.phase != phaseActive:
		return []KeyHint{{Key: "esc", Description: "Go back"}}
	case s.deck.Exhausted():
		return []KeyHint{{Key: "r", Description: "Start over"}, {Key: "esc", Description: "Done"}}
	}
	return []KeyHint{
		{Key: "space", Description: "Flip"},
		{Key: "←/→", Description: "Previous/Next"},
		{Key: "esc", Description: "Back"},
	}
}

func (s *FlashcardsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cardsLoadedMsg:
		var le *loader.LoadError
		switch {
		case errors.As(msg.err, &le) && le.Kind == loader.RateLimited:
			s.phase = phaseRateLimited
			s.message = detailOr(msg.err, "You've exceeded today's limit of AI requests. Please try again tomorrow!")
		case msg.err != nil:
			s.phase, s.message = phaseUnavailable, "No flashcards available for this chapter."
		default:
			s.cards = apiclient.Cards(msg.cards)
			s.startDeck()
		}
		return s, nil
	case tea.KeyMsg:
		return s.key(msg.String())
	}
	return s, nil
}

func (s *FlashcardsScreen) startDeck() {
	deck, err := quiz.NewDeck(s.chapter.ID, s.cards)
	if err != nil {
		s.phase, s.message = phaseUnavailable, "No flashcards available for this chapter."
		return
	}
	s.deck, s.phase = deck, phaseActive
}

func (s *FlashcardsScreen) key(k string) (Screen, tea.Cmd) {
	if k == "esc" || k == "q" {
		return s, pop
	}
	switch s.phase {
	case phaseUnavailable:
		if k == "r" {
			return s, s.load()
		}
		return s, nil
	case phaseActive:
	default:
		return s, nil
	}
	if s.deck.Exhausted() {
		if k == "r" {
			s.startDeck()
		}
		return s, nil
	}
	switch k {
	case " ", "enter", "f":
		s.deck.Flip()
	case "right", "l", "n":
		s.deck.Advance()
	case "left", "h", "p":
		s.deck.Retreat()
	}
	return s, nil
}

func (s *FlashcardsScreen) View(width, height int) string {
	switch s.phase {
	case phaseLoading:
		return loadingView("Loading flashcards")
	case phaseRateLimited:
		return warnStyle.Render("Daily Limit Reached") + "\n\n" + s.message
	case phaseUnavailable:
		return errStyle.Render("Oops!") + "\n\n" + s.message
	}
	if s.deck.Exhausted() {
		return okStyle.Render(fmt.Sprintf("You've reviewed all %d cards.", s.deck.Len()))
	}
	side := "QUESTION"
	if s.deck.Flipped() {
		side = "ANSWER"
	}
	var b strings.Builder
	b.WriteString(progressBar(s.deck.Index()+1, s.deck.Len(), 30) + "\n\n")
	b.WriteString(dimStyle.Render(side) + "\n")
	w := width - 6
	if w < 20 {
		w = 20
	}
	b.WriteString(cardStyle.Width(w).Render(s.deck.Face()))
	return b.String()
}
