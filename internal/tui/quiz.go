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

// DailyTopic is the topic id reported for the daily quiz, which spans
// chapters.
const DailyTopic int64 = 0

type phase int

const (
	phaseLoading phase = iota
	phaseUnavailable
	phaseRateLimited
	phaseActive
)

type itemsLoadedMsg struct {
	to    string
	items []api.MCQ
	err   error
}

func (m itemsLoadedMsg) target() string { return m.to }
func (m itemsLoadedMsg) failed() error  { return m.err }

// QuizScreen runs one scored session over fetched MCQs. Practice and the
// daily quiz differ only in where the items come from.
type QuizScreen struct {
	base
	title   string
	topic   int64
	answers bool // record each answer against topic
	fetch   func(ctx context.Context) ([]api.MCQ, error)

	phase   phase
	message string
	sess    *quiz.Session
	cursor  int
}

// NewPractice runs a chapter's generated MCQs. Answers are recorded per
// chapter and the completed session is reported.
func NewPractice(deps *Deps, chapter loader.Named) *QuizScreen {
	a, id := deps.API, chapter.ID
	return &QuizScreen{
		base:    newBase(deps),
		title:   chapter.Name,
		topic:   id,
		answers: true,
		fetch:   func(ctx context.Context) ([]api.MCQ, error) { return a.GenerateMCQs(ctx, id) },
	}
}

// NewDaily runs the daily set, reported under DailyTopic.
func NewDaily(deps *Deps) *QuizScreen {
	a := deps.API
	return &QuizScreen{
		base:  newBase(deps),
		title: "Daily Revision",
		topic: DailyTopic,
		fetch: a.Daily,
	}
}

func (s *QuizScreen) Title() string          { return s.title }
func (s *QuizScreen) Init() tea.Cmd          { return s.load() }
func (s *QuizScreen) Session() *quiz.Session { return s.sess }

func (s *QuizScreen) load() tea.Cmd {
	s.phase, s.message, s.sess, s.cursor = phaseLoading, "", nil, 0
	to, fetch, deps := s.renew(), s.fetch, s.deps
	key := fmt.Sprintf("mcqs/%d", s.topic)
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		res, err := loader.Load(ctx, key,
			func(ctx context.Context, _ string) ([]api.MCQ, error) { return fetch(ctx) },
			loader.Policy[api.MCQ]{IsRateLimited: apiclient.IsRateLimited})
		if err != nil {
			deps.Log.Debug().Err(err).Str("key", key).Msg("quiz items unavailable")
		}
		return itemsLoadedMsg{to: to, items: res.Items, err: err}
	}
}

func (s *QuizScreen) KeyHints() []KeyHint {
	switch s.phase {
	case phaseUnavailable:
		return []KeyHint{{Key: "r", Description: "Try again"}, {Key: "esc", Description: "Go back"}}
	case phaseRateLimited:
		return []KeyHint{{Key: "esc", Description: "Go back"}}
	case phaseActive:
		if s.sess.Answered() {
			next := "Next question"
			if s.sess.IsLast() {
				next = "Finish quiz"
			}
			return []KeyHint{{Key: "enter", Description: next}, {Key: "esc", Description: "Quit"}}
		}
		return []KeyHint{{Key: "a-d", Description: "Answer"}, {Key: "enter", Description: "Choose"}, {Key: "esc", Description: "Quit"}}
	}
	return nil
}

func (s *QuizScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		return s, s.loaded(msg)
	case tea.KeyMsg:
		return s.key(msg.String())
	}
	return s, nil
}

func (s *QuizScreen) loaded(msg itemsLoadedMsg) tea.Cmd {
	var le *loader.LoadError
	switch {
	case errors.As(msg.err, &le) && le.Kind == loader.RateLimited:
		s.phase = phaseRateLimited
		s.message = detailOr(msg.err, "You've exceeded today's limit of AI requests. Please try again tomorrow!")
		return nil
	case errors.As(msg.err, &le) && le.Kind == loader.Empty:
		s.phase, s.message = phaseUnavailable, "No questions available for this chapter."
		return nil
	case msg.err != nil:
		s.phase, s.message = phaseUnavailable, "Failed to load questions."
		return nil
	}

	sess, err := quiz.NewSession(s.topic, apiclient.Items(msg.items), s.deps.sessionOptions(s.topic, s.answers)...)
	if err != nil {
		s.phase, s.message = phaseUnavailable, "No questions available for this chapter."
		return nil
	}
	s.sess, s.phase = sess, phaseActive
	s.deps.Log.Debug().Str("session", sess.ID()).Int64("topic", s.topic).Int("items", sess.Len()).Msg("quiz started")
	return nil
}

func (s *QuizScreen) key(k string) (Screen, tea.Cmd) {
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

	item := s.sess.Current()
	if s.sess.Answered() {
		if k == "enter" || k == "n" || k == " " {
			s.sess.Advance()
			s.cursor = 0
			if s.sess.Completed() {
				sum, _ := s.sess.Summary()
				return s, replace(NewResult(s.deps, s.title, sum))
			}
		}
		return s, nil
	}
	switch k {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(item.Choices)-1 {
			s.cursor++
		}
	case "enter", " ":
		if s.cursor < len(item.Choices) {
			s.sess.SelectAnswer(item.Choices[s.cursor].Label)
		}
	case "a", "b", "c", "d", "A", "B", "C", "D":
		s.sess.SelectAnswer(quiz.Label(strings.ToUpper(k)))
	case "1", "2", "3", "4":
		if i := int(k[0] - '1'); i < len(item.Choices) {
			s.sess.SelectAnswer(item.Choices[i].Label)
		}
	}
	return s, nil
}

func (s *QuizScreen) View(width, height int) string {
	switch s.phase {
	case phaseLoading:
		return loadingView("Generating questions")
	case phaseRateLimited:
		return warnStyle.Render("Daily Limit Reached") + "\n\n" + s.message
	case phaseUnavailable:
		return errStyle.Render("Oops!") + "\n\n" + s.message
	}

	item := s.sess.Current()
	selected, answered := s.sess.Selected()
	var b strings.Builder
	b.WriteString(progressBar(s.sess.Index()+1, s.sess.Len(), 30) + "\n\n")
	fmt.Fprintf(&b, "QUESTION %d OF %d\n", s.sess.Index()+1, s.sess.Len())
	b.WriteString(titleStyle.Render(item.Prompt) + "\n\n")
	for i, c := range item.Choices {
		line := fmt.Sprintf("%s  %s", c.Label, c.Text)
		switch {
		case answered && c.Label == item.Correct:
			line = okStyle.Render(line + "  ✓")
		case answered && c.Label == selected:
			line = errStyle.Render(line + "  ✗")
		case !answered && i == s.cursor:
			line = cursorStyle.Render("> " + line)
			b.WriteString(line + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// ResultScreen presents the final tally of a finished session.
type ResultScreen struct {
	base
	title   string
	summary quiz.Summary
}

func NewResult(deps *Deps, title string, sum quiz.Summary) *ResultScreen {
	return &ResultScreen{base: newBase(deps), title: title, summary: sum}
}

func (s *ResultScreen) Title() string         { return s.title }
func (s *ResultScreen) Init() tea.Cmd         { return nil }
func (s *ResultScreen) Summary() quiz.Summary { return s.summary }

func (s *ResultScreen) KeyHints() []KeyHint {
	return []KeyHint{{Key: "enter", Description: "Done"}}
}

func (s *ResultScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc", "q":
			return s, pop
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	pct := fmt.Sprintf("%d%%", s.summary.Percentage)
	if s.summary.Passed() {
		pct = okStyle.Render(pct)
	} else {
		pct = errStyle.Render(pct)
	}
	body := pct + "\n\n" + titleStyle.Render(s.summary.Headline()) + "\n" +
		fmt.Sprintf("%d out of %d correct", s.summary.Score, s.summary.Total)
	return cardStyle.Render(body)
}
