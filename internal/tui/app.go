package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
)

// Resumer is implemented by screens that refresh when they become the top
// of the stack again.
type Resumer interface {
	Resume() tea.Cmd
}

// App is the root model: it owns the screen stack and routes messages.
type App struct {
	deps   *Deps
	stack  []Screen
	notice string

	width, height int
}

var _ tea.Model = (*App)(nil)

// New starts at Home when the auth session already holds a valid token and
// at Login otherwise.
func New(deps *Deps) *App {
	var first Screen
	if deps.Auth != nil && deps.Auth.IsAuthenticated() {
		first = NewHome(deps)
	} else {
		first = NewLogin(deps)
	}
	return &App{deps: deps, stack: []Screen{first}, width: 80, height: 24}
}

func (a *App) Top() Screen { return a.stack[len(a.stack)-1] }
func (a *App) Depth() int  { return len(a.stack) }

func (a *App) Init() tea.Cmd { return a.Top().Init() }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		return a, nil
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.notice = ""
	case PushMsg:
		a.stack = append(a.stack, m.Screen)
		return a, m.Screen.Init()
	case PopMsg:
		if len(a.stack) == 1 {
			return a, tea.Quit
		}
		a.stack = a.stack[:len(a.stack)-1]
		if r, ok := a.Top().(Resumer); ok {
			return a, r.Resume()
		}
		return a, nil
	case ReplaceMsg:
		a.stack[len(a.stack)-1] = m.Screen
		return a, m.Screen.Init()
	case ResetMsg:
		a.stack = []Screen{m.Screen}
		a.notice = m.Notice
		return a, m.Screen.Init()
	}

	if f, ok := msg.(failure); ok && a.signedOut(f.failed()) {
		a.deps.Log.Info().Msg("session ended by server")
		a.stack = []Screen{NewLogin(a.deps)}
		a.notice = "Your session has expired. Please log in again."
		return a, a.Top().Init()
	}

	if ad, ok := msg.(addressed); ok {
		to := ad.target()
		for i := len(a.stack) - 1; i >= 0; i-- {
			if a.stack[i].ID() == to {
				next, cmd := a.stack[i].Update(msg)
				a.stack[i] = next
				return a, cmd
			}
		}
		a.deps.Log.Debug().Str("target", to).Msg("stale result dropped")
		return a, nil
	}

	next, cmd := a.Top().Update(msg)
	a.stack[len(a.stack)-1] = next
	return a, cmd
}

// signedOut is true when err is a 401 and the auth session has already
// dropped its token in response.
func (a *App) signedOut(err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	return a.deps.Auth == nil || !a.deps.Auth.IsAuthenticated()
}

func (a *App) View() string {
	top := a.Top()
	var b strings.Builder
	b.WriteString(titleStyle.Render(top.Title()))
	b.WriteString("\n\n")
	if a.notice != "" {
		b.WriteString(warnStyle.Render(a.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(top.View(a.width, a.height-4))
	if hp, ok := top.(KeyHintProvider); ok {
		if hints := hp.KeyHints(); len(hints) > 0 {
			b.WriteString("\n\n")
			b.WriteString(renderHints(hints))
		}
	}
	return b.String()
}

// base carries what every screen needs. id is renewed on each load so that
// results of an earlier load no longer find their screen.
type base struct {
	id   string
	deps *Deps
}

func newBase(deps *Deps) base { return base{id: uuid.NewString(), deps: deps} }

func (b *base) ID() string { return b.id }

func (b *base) renew() string {
	b.id = uuid.NewString()
	return b.id
}
