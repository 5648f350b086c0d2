package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-revise/internal/loader"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type homeLoadedMsg struct {
	to       string
	stats    *api.Stats
	classes  loader.Result[loader.Named]
	statsErr error
}

func (m homeLoadedMsg) target() string { return m.to }
func (m homeLoadedMsg) failed() error  { return m.statsErr }

// HomeScreen shows the learner's stats and the class list.
type HomeScreen struct {
	base
	loading  bool
	stats    *api.Stats
	classes  []loader.Named
	fallback bool
	cursor   int
}

func NewHome(deps *Deps) *HomeScreen {
	return &HomeScreen{base: newBase(deps), loading: true}
}

func (s *HomeScreen) Title() string   { return "Home" }
func (s *HomeScreen) Init() tea.Cmd   { return s.load() }
func (s *HomeScreen) Resume() tea.Cmd { return s.load() }

func (s *HomeScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "enter", Description: "Open class"},
		{Key: "d", Description: "Daily quiz"},
		{Key: "p", Description: "Progress"},
		{Key: "o", Description: "Profile"},
		{Key: "q", Description: "Quit"},
	}
}

func (s *HomeScreen) load() tea.Cmd {
	s.loading = true
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		out := homeLoadedMsg{to: to}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			st, err := deps.API.ProgressStats(gctx)
			if err != nil {
				out.statsErr = err
				return nil
			}
			out.stats = &st
			return nil
		})
		g.Go(func() error {
			res, err := loader.Load(gctx, "classes", classFetcher(deps.API), loader.Browse(loader.DefaultClasses))
			if err != nil {
				return err
			}
			out.classes = res
			return nil
		})
		if err := g.Wait(); err != nil {
			deps.Log.Warn().Err(err).Msg("home")
		}
		if out.statsErr != nil {
			deps.Log.Debug().Err(out.statsErr).Msg("stats unavailable")
		}
		return out
	}
}

func classFetcher(a API) loader.Fetcher[loader.Named] {
	return func(ctx context.Context, _ string) ([]loader.Named, error) {
		cs, err := a.Classes(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]loader.Named, len(cs))
		for i, c := range cs {
			out[i] = loader.Named{ID: c.ID, Name: c.Name}
		}
		return out, nil
	}
}

func (s *HomeScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case homeLoadedMsg:
		s.loading = false
		s.stats = msg.stats
		s.classes, s.fallback = msg.classes.Items, msg.classes.FromFallback
		if s.cursor >= len(s.classes) {
			s.cursor = 0
		}
		return s, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return s, tea.Quit
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.classes)-1 {
				s.cursor++
			}
		case "enter":
			if s.cursor < len(s.classes) {
				return s, push(NewSubjects(s.deps, s.classes[s.cursor]))
			}
		case "d":
			return s, push(NewDaily(s.deps))
		case "p":
			return s, push(NewProgress(s.deps))
		case "o":
			return s, push(NewProfile(s.deps))
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *HomeScreen) View(width, height int) string {
	if s.loading && s.classes == nil {
		return loadingView("Loading")
	}
	var b strings.Builder
	if s.stats != nil {
		fmt.Fprintf(&b, "Accuracy %d%%   Chapters %d   Quizzes %d   Streak %d\n\n",
			s.stats.Accuracy, s.stats.CompletedChapters, s.stats.TotalQuizzes, s.stats.Streak)
	} else {
		b.WriteString(dimStyle.Render("Stats unavailable") + "\n\n")
	}
	b.WriteString("Choose your class\n")
	if s.fallback {
		b.WriteString(dimStyle.Render("(offline list)") + "\n")
	}
	names := make([]string, len(s.classes))
	for i, c := range s.classes {
		names[i] = c.Name
	}
	b.WriteString(renderList(names, s.cursor))
	return b.String()
}
