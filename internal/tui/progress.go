package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type statsMsg struct {
	to    string
	stats api.Stats
	err   error
}

func (m statsMsg) target() string { return m.to }
func (m statsMsg) failed() error  { return m.err }

type ProgressScreen struct {
	base
	loading bool
	stats   *api.Stats
	err     string
}

func NewProgress(deps *Deps) *ProgressScreen {
	return &ProgressScreen{base: newBase(deps), loading: true}
}

func (s *ProgressScreen) Title() string { return "Your Progress" }
func (s *ProgressScreen) Init() tea.Cmd { return s.load() }

func (s *ProgressScreen) KeyHints() []KeyHint {
	return []KeyHint{{Key: "r", Description: "Refresh"}, {Key: "esc", Description: "Back"}}
}

func (s *ProgressScreen) load() tea.Cmd {
	s.loading, s.err = true, ""
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		st, err := deps.API.ProgressStats(ctx)
		return statsMsg{to: to, stats: st, err: err}
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		s.loading = false
		if msg.err != nil {
			s.err = "Could not load your progress."
			return s, nil
		}
		st := msg.stats
		s.stats = &st
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, pop
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	switch {
	case s.loading:
		return loadingView("Loading")
	case s.err != "":
		return errStyle.Render(s.err)
	}
	return fmt.Sprintf("Accuracy            %3d%%\n%s\n\nChapters completed  %4d\nQuizzes taken       %4d\nDay streak          %4d",
		s.stats.Accuracy, progressBar(s.stats.Accuracy, 100, 30),
		s.stats.CompletedChapters, s.stats.TotalQuizzes, s.stats.Streak)
}
