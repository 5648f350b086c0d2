package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mind-engage/mindengage-revise/internal/loader"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type listLoadedMsg struct {
	to  string
	res loader.Result[loader.Named]
	err error
}

func (m listLoadedMsg) target() string { return m.to }
func (m listLoadedMsg) failed() error  { return m.err }

// list is the shared body of the subject and chapter screens.
type list struct {
	base
	loading  bool
	items    []loader.Named
	fallback bool
	cursor   int
	err      string
}

func (l *list) load(key string, fetch loader.Fetcher[loader.Named], defaults []loader.Named) tea.Cmd {
	l.loading, l.err = true, ""
	to, deps := l.renew(), l.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		res, err := loader.Load(ctx, key, fetch, loader.Browse(defaults))
		return listLoadedMsg{to: to, res: res, err: err}
	}
}

func (l *list) loaded(msg listLoadedMsg) {
	l.loading = false
	if msg.err != nil {
		l.err = "Could not load this list."
		return
	}
	l.items, l.fallback = msg.res.Items, msg.res.FromFallback
	if l.cursor >= len(l.items) {
		l.cursor = 0
	}
}

// move handles cursor keys and reports whether the key was one.
func (l *list) move(key string) bool {
	switch key {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
		return true
	case "down", "j":
		if l.cursor < len(l.items)-1 {
			l.cursor++
		}
		return true
	}
	return false
}

func (l *list) selected() (loader.Named, bool) {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return loader.Named{}, false
	}
	return l.items[l.cursor], true
}

func (l *list) view(heading string, prefix func(i int) string) string {
	if l.loading && l.items == nil {
		return loadingView("Loading")
	}
	if l.err != "" {
		return errStyle.Render(l.err)
	}
	var b strings.Builder
	b.WriteString(heading + "\n")
	if l.fallback {
		b.WriteString(dimStyle.Render("(offline list)") + "\n")
	}
	names := make([]string, len(l.items))
	for i, it := range l.items {
		names[i] = prefix(i) + it.Name
	}
	b.WriteString(renderList(names, l.cursor))
	return b.String()
}

// --- Subjects ---

type SubjectsScreen struct {
	list
	class loader.Named
}

func NewSubjects(deps *Deps, class loader.Named) *SubjectsScreen {
	return &SubjectsScreen{list: list{base: newBase(deps), loading: true}, class: class}
}

func (s *SubjectsScreen) Title() string { return s.class.Name }

func (s *SubjectsScreen) Init() tea.Cmd {
	a, classID := s.deps.API, s.class.ID
	fetch := func(ctx context.Context, _ string) ([]loader.Named, error) {
		subs, err := a.Subjects(ctx, classID)
		return namedSubjects(subs), err
	}
	return s.load(fmt.Sprintf("subjects/%d", classID), fetch, loader.DefaultSubjects)
}

func namedSubjects(subs []api.Subject) []loader.Named {
	out := make([]loader.Named, len(subs))
	for i, sb := range subs {
		out[i] = loader.Named{ID: sb.ID, Name: sb.Name}
	}
	return out
}

func (s *SubjectsScreen) KeyHints() []KeyHint {
	return []KeyHint{{Key: "enter", Description: "Open subject"}, {Key: "esc", Description: "Back"}}
}

func (s *SubjectsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		s.loaded(msg)
	case tea.KeyMsg:
		if s.move(msg.String()) {
			return s, nil
		}
		switch msg.String() {
		case "esc", "q":
			return s, pop
		case "enter":
			if sub, ok := s.selected(); ok {
				return s, push(NewChapters(s.deps, sub))
			}
		}
	}
	return s, nil
}

func (s *SubjectsScreen) View(width, height int) string {
	return s.view("Choose a subject", func(int) string { return "" })
}

// --- Chapters ---

type resetStatusMsg struct {
	to      string
	chapter int64
	status  api.ResetStatus
	err     error
	reset   bool // the result of a reset rather than a status read
}

func (m resetStatusMsg) target() string { return m.to }
func (m resetStatusMsg) failed() error  { return m.err }

// ChaptersScreen lists a subject's chapters and the reset quota of the
// selected one. The quota is shown as the server reports it; the reset
// action is only offered while the server says resets remain.
type ChaptersScreen struct {
	list
	subject loader.Named

	status   map[int64]api.ResetStatus
	resetErr string
	notice   string
}

func NewChapters(deps *Deps, subject loader.Named) *ChaptersScreen {
	return &ChaptersScreen{
		list:    list{base: newBase(deps), loading: true},
		subject: subject,
		status:  map[int64]api.ResetStatus{},
	}
}

func (s *ChaptersScreen) Title() string { return s.subject.Name }

func (s *ChaptersScreen) Init() tea.Cmd {
	a, subjectID := s.deps.API, s.subject.ID
	fetch := func(ctx context.Context, _ string) ([]loader.Named, error) {
		chs, err := a.Chapters(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		out := make([]loader.Named, len(chs))
		for i, c := range chs {
			out[i] = loader.Named{ID: c.ID, Name: c.Title}
		}
		return out, nil
	}
	return s.load(fmt.Sprintf("chapters/%d", subjectID), fetch, loader.DefaultChapters)
}

// Resume refreshes the quota of the selected chapter after a practice run.
func (s *ChaptersScreen) Resume() tea.Cmd { return s.readStatus() }

func (s *ChaptersScreen) KeyHints() []KeyHint {
	hints := []KeyHint{
		{Key: "enter", Description: "Practice"},
		{Key: "f", Description: "Flashcards"},
	}
	if s.CanReset() {
		hints = append(hints, KeyHint{Key: "x", Description: "Reset answers"})
	}
	return append(hints, KeyHint{Key: "esc", Description: "Back"})
}

// CanReset is true when the server last reported resets remaining for the
// selected chapter.
func (s *ChaptersScreen) CanReset() bool {
	ch, ok := s.selected()
	if !ok {
		return false
	}
	st, ok := s.status[ch.ID]
	return ok && st.RemainingResets > 0
}

func (s *ChaptersScreen) readStatus() tea.Cmd {
	ch, ok := s.selected()
	if !ok {
		return nil
	}
	to, deps := s.ID(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		st, err := deps.API.ResetStatus(ctx, ch.ID)
		return resetStatusMsg{to: to, chapter: ch.ID, status: st, err: err}
	}
}

func (s *ChaptersScreen) resetAnswers() tea.Cmd {
	ch, ok := s.selected()
	if !ok {
		return nil
	}
	to, deps := s.ID(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		st, err := deps.API.ResetAnswers(ctx, ch.ID)
		return resetStatusMsg{to: to, chapter: ch.ID, status: st, err: err, reset: true}
	}
}

func (s *ChaptersScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		s.loaded(msg)
		return s, s.readStatus()
	case resetStatusMsg:
		switch {
		case msg.err == nil:
			s.status[msg.chapter] = msg.status
			if msg.reset {
				s.notice = "Answers cleared."
			}
		case msg.reset:
			s.resetErr = detailOr(msg.err, "Could not reset answers.")
			delete(s.status, msg.chapter)
			return s, s.readStatus()
		default:
			s.deps.Log.Debug().Err(msg.err).Int64("chapter", msg.chapter).Msg("reset status")
		}
		return s, nil
	case tea.KeyMsg:
		s.resetErr, s.notice = "", ""
		if s.move(msg.String()) {
			if _, ok := s.status[s.items[s.cursor].ID]; !ok {
				return s, s.readStatus()
			}
			return s, nil
		}
		ch, ok := s.selected()
		switch msg.String() {
		case "esc", "q":
			return s, pop
		case "enter", "p":
			if ok {
				return s, push(NewPractice(s.deps, ch))
			}
		case "f":
			if ok {
				return s, push(NewFlashcards(s.deps, ch))
			}
		case "x":
			if s.CanReset() {
				return s, s.resetAnswers()
			}
			if !ok {
				return s, nil
			}
			if _, known := s.status[ch.ID]; known {
				s.resetErr = "No resets left for this chapter."
			} else {
				s.resetErr = "Reset status unavailable."
			}
		}
	}
	return s, nil
}

func (s *ChaptersScreen) View(width, height int) string {
	heading := fmt.Sprintf("%d chapters available", len(s.items))
	body := s.view(heading, func(i int) string { return fmt.Sprintf("%d. ", i+1) })
	if s.loading || s.err != "" {
		return body
	}
	var b strings.Builder
	b.WriteString(body)
	if ch, ok := s.selected(); ok {
		if st, ok := s.status[ch.ID]; ok {
			fmt.Fprintf(&b, "\nResets used %d of %d, %d left\n", st.ResetCount, st.MaxResets, st.RemainingResets)
		}
	}
	if s.notice != "" {
		b.WriteString("\n" + okStyle.Render(s.notice))
	}
	if s.resetErr != "" {
		b.WriteString("\n" + errStyle.Render(s.resetErr))
	}
	return b.String()
}
