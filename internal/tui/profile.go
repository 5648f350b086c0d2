package tui

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-revise/internal/loader"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

var userTypes = []string{"student", "parent"}

type profileMsg struct {
	to      string
	user    api.User
	classes []loader.Named
	err     error
	saved   bool
}

func (m profileMsg) target() string { return m.to }
func (m profileMsg) failed() error  { return m.err }

func strOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// --- Profile ---

type ProfileScreen struct {
	base
	loading bool
	user    *api.User
	err     string
}

func NewProfile(deps *Deps) *ProfileScreen {
	return &ProfileScreen{base: newBase(deps), loading: true}
}

func (s *ProfileScreen) Title() string   { return "Profile" }
func (s *ProfileScreen) Init() tea.Cmd   { return s.load() }
func (s *ProfileScreen) Resume() tea.Cmd { return s.load() }

func (s *ProfileScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "e", Description: "Edit profile"},
		{Key: "L", Description: "Log out"},
		{Key: "esc", Description: "Back"},
	}
}

func (s *ProfileScreen) load() tea.Cmd {
	s.loading, s.err = true, ""
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		u, err := deps.API.Me(ctx)
		return profileMsg{to: to, user: u, err: err}
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileMsg:
		s.loading = false
		if msg.err != nil {
			s.err = "Failed to load profile. Please try again."
			return s, nil
		}
		u := msg.user
		s.user = &u
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, pop
		case "e":
			return s, push(NewEditProfile(s.deps))
		case "L":
			return s, s.logout()
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *ProfileScreen) logout() tea.Cmd {
	ctx, cancel := s.deps.ctx()
	defer cancel()
	if err := s.deps.Auth.Logout(ctx); err != nil {
		s.deps.Log.Warn().Err(err).Msg("logout")
	}
	deps := s.deps
	return func() tea.Msg { return ResetMsg{Screen: NewLogin(deps), Notice: "Logged out."} }
}

func (s *ProfileScreen) View(width, height int) string {
	switch {
	case s.loading && s.user == nil:
		return loadingView("Loading")
	case s.err != "":
		return errStyle.Render(s.err)
	}
	u := s.user
	class := "Not set"
	if u.ClassID != nil {
		class = fmt.Sprintf("#%d", *u.ClassID)
	}
	return fmt.Sprintf("%s\n%s\n\nPhone      %s\nClass      %s\nI am a     %s\nJoined     %s",
		titleStyle.Render(strOr(u.Username, "Student")), dimStyle.Render(u.Email),
		strOr(u.Phone, "Not set"), class, strOr(u.UserType, "student"),
		u.CreatedAt.Format("2 Jan 2006"))
}

// --- Edit profile ---

const (
	fieldUsername = iota
	fieldPhone
)

// ValidateProfile checks the editable text fields and returns a message per
// failing field, keyed by field index.
func ValidateProfile(username, phone string) map[int]string {
	errs := map[int]string{}
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		errs[fieldUsername] = "Username is required"
	case len([]rune(username)) < 3:
		errs[fieldUsername] = "Username must be at least 3 characters"
	}
	if phone = strings.TrimSpace(phone); phone != "" && !phonePattern.MatchString(phone) {
		errs[fieldPhone] = "Enter a valid 10-digit mobile number"
	}
	return errs
}

type EditProfileScreen struct {
	base
	loading bool
	saving  bool
	form    form
	email   string
	classes []loader.Named
	class   int // index into classes, -1 for none
	kind    int // index into userTypes
	errs    map[int]string
	err     string
}

func NewEditProfile(deps *Deps) *EditProfileScreen {
	return &EditProfileScreen{base: newBase(deps), loading: true, class: -1}
}

func (s *EditProfileScreen) Title() string { return "Edit Profile" }
func (s *EditProfileScreen) Init() tea.Cmd { return s.load() }

func (s *EditProfileScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "tab", Description: "Next field"},
		{Key: "pgup/pgdn", Description: "Class"},
		{Key: "ctrl+t", Description: "Student/Parent"},
		{Key: "ctrl+s", Description: "Save"},
		{Key: "esc", Description: "Cancel"},
	}
}

func (s *EditProfileScreen) load() tea.Cmd {
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		out := profileMsg{to: to}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			u, err := deps.API.Me(gctx)
			out.user = u
			return err
		})
		g.Go(func() error {
			res, err := loader.Load(gctx, "classes", classFetcher(deps.API), loader.Browse(loader.DefaultClasses))
			out.classes = res.Items
			return err
		})
		out.err = g.Wait()
		return out
	}
}

func (s *EditProfileScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileMsg:
		return s, s.handle(msg)
	case tea.KeyMsg:
		if s.loading || s.saving {
			if msg.String() == "esc" {
				return s, pop
			}
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, pop
		case "pgup":
			if s.class > 0 {
				s.class--
			}
			return s, nil
		case "pgdown":
			if s.class < len(s.classes)-1 {
				s.class++
			}
			return s, nil
		case "ctrl+t":
			s.kind = (s.kind + 1) % len(userTypes)
			return s, nil
		case "ctrl+s":
			return s, s.save()
		case "enter":
			if s.form.onLast() {
				return s, s.save()
			}
			return s, s.form.move(1)
		}
	}
	if s.loading {
		return s, nil
	}
	cmd, _ := s.form.update(msg)
	return s, cmd
}

func (s *EditProfileScreen) handle(msg profileMsg) tea.Cmd {
	if msg.saved {
		s.saving = false
		if msg.err != nil {
			s.err = detailOr(msg.err, "Failed to save profile.")
			return nil
		}
		return pop
	}
	s.loading = false
	if msg.err != nil {
		s.err = "Failed to load profile. Please try again."
	}
	u := msg.user
	s.email = u.Email
	s.classes = msg.classes
	s.class = -1
	for i, c := range s.classes {
		if u.ClassID != nil && c.ID == *u.ClassID {
			s.class = i
		}
	}
	s.kind = 0
	for i, t := range userTypes {
		if strOr(u.UserType, "student") == t {
			s.kind = i
		}
	}
	s.form = newForm(
		field{label: "Username", limit: 50, value: strOr(u.Username, "")},
		field{label: "Phone", limit: 10, value: strOr(u.Phone, "")},
	)
	return nil
}

func (s *EditProfileScreen) save() tea.Cmd {
	username, phone := s.form.value(fieldUsername), s.form.value(fieldPhone)
	if s.errs = ValidateProfile(username, phone); len(s.errs) > 0 {
		return nil
	}
	kind := userTypes[s.kind]
	in := api.ProfileUpdate{Username: &username, Phone: &phone, UserType: &kind}
	if s.class >= 0 {
		id := s.classes[s.class].ID
		in.ClassID = &id
	}
	s.saving, s.err = true, ""
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		u, err := deps.API.UpdateMe(ctx, in)
		return profileMsg{to: to, user: u, err: err, saved: true}
	}
}

func (s *EditProfileScreen) View(width, height int) string {
	if s.loading {
		return loadingView("Loading")
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render(s.email) + "\n\n")
	b.WriteString(s.form.view(s.errs))
	class := "Not set"
	if s.class >= 0 {
		class = s.classes[s.class].Name
	}
	fmt.Fprintf(&b, "Class\n  < %s >\nI am a\n  %s\n", class, userTypes[s.kind])
	if s.saving {
		b.WriteString("\n" + loadingView("Saving"))
	}
	if s.err != "" {
		b.WriteString("\n" + errStyle.Render(s.err))
	}
	return b.String()
}
