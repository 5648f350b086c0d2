package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
)

// tokenMsg is the outcome of login, signup or OTP verification.
type tokenMsg struct {
	to     string
	result apiclient.LoginResult
	userID int64 // signup only
	err    error
}

func (m tokenMsg) target() string { return m.to }

// detailOr is the server's message for err, or fallback.
func detailOr(err error, fallback string) string {
	if d := apiclient.Detail(err); d != "" {
		return d
	}
	return fallback
}

// signIn persists token and lands on Home.
func (b *base) signIn(token string) tea.Cmd {
	ctx, cancel := b.deps.ctx()
	defer cancel()
	if err := b.deps.Auth.Login(ctx, token); err != nil {
		b.deps.Log.Error().Err(err).Msg("persist token")
		return func() tea.Msg {
			return ResetMsg{Screen: NewHome(b.deps), Notice: "Logged in, but the token could not be saved."}
		}
	}
	return func() tea.Msg { return ResetMsg{Screen: NewHome(b.deps)} }
}

// --- Login ---

type LoginScreen struct {
	base
	form  form
	busy  bool
	email string
	err   string
}

func NewLogin(deps *Deps) *LoginScreen {
	return &LoginScreen{
		base: newBase(deps),
		form: newForm(field{label: "Email", limit: 254}, field{label: "Password", secret: true, limit: 128}),
	}
}

func (s *LoginScreen) Title() string { return "Welcome back" }
func (s *LoginScreen) Init() tea.Cmd { return nil }

func (s *LoginScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "tab", Description: "Next field"},
		{Key: "enter", Description: "Log in"},
		{Key: "ctrl+n", Description: "Create account"},
		{Key: "esc", Description: "Quit"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tokenMsg:
		s.busy = false
		switch {
		case msg.err != nil:
			s.err = detailOr(msg.err, "Something went wrong")
			return s, nil
		case msg.result.RequiresOTP:
			return s, push(NewOTP(s.deps, msg.result.UserID, s.email))
		default:
			return s, s.signIn(msg.result.Token)
		}
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, pop
		case "ctrl+n":
			return s, push(NewSignup(s.deps))
		case "enter":
			if !s.form.onLast() {
				return s, s.form.move(1)
			}
			return s, s.submit()
		}
	}
	cmd, _ := s.form.update(msg)
	return s, cmd
}

func (s *LoginScreen) submit() tea.Cmd {
	email, password := s.form.value(0), s.form.inputs[1].Value()
	if email == "" || password == "" {
		s.err = "Please fill in all fields"
		return nil
	}
	s.err, s.busy, s.email = "", true, email
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		res, err := deps.API.Login(ctx, email, password)
		return tokenMsg{to: to, result: res, err: err}
	}
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("Log in to continue your revision") + "\n\n")
	b.WriteString(s.form.view(nil))
	if s.busy {
		b.WriteString("\n" + loadingView("Logging in"))
	}
	if s.err != "" {
		b.WriteString("\n" + errStyle.Render(s.err))
	}
	return b.String()
}

// --- Signup ---

type SignupScreen struct {
	base
	form  form
	busy  bool
	email string
	err   string
}

func NewSignup(deps *Deps) *SignupScreen {
	return &SignupScreen{
		base: newBase(deps),
		form: newForm(
			field{label: "Email", limit: 254},
			field{label: "Password", secret: true, limit: 128},
		),
	}
}

func (s *SignupScreen) Title() string       { return "Create account" }
func (s *SignupScreen) Init() tea.Cmd       { return nil }
func (s *SignupScreen) KeyHints() []KeyHint { return formHints("Sign up") }

func (s *SignupScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tokenMsg:
		s.busy = false
		if msg.err != nil {
			s.err = detailOr(msg.err, "Something went wrong")
			return s, nil
		}
		return s, replace(NewOTP(s.deps, msg.userID, s.email))
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, pop
		case "enter":
			if !s.form.onLast() {
				return s, s.form.move(1)
			}
			return s, s.submit()
		}
	}
	cmd, _ := s.form.update(msg)
	return s, cmd
}

func (s *SignupScreen) submit() tea.Cmd {
	email, password := s.form.value(0), s.form.inputs[1].Value()
	if email == "" || password == "" {
		s.err = "Please fill in all fields"
		return nil
	}
	s.err, s.busy, s.email = "", true, email
	to, deps := s.renew(), s.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		u, err := deps.API.Signup(ctx, email, password)
		return tokenMsg{to: to, userID: u.ID, err: err}
	}
}

func (s *SignupScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("We will send a verification code to your email") + "\n\n")
	b.WriteString(s.form.view(nil))
	if s.busy {
		b.WriteString("\n" + loadingView("Creating account"))
	}
	if s.err != "" {
		b.WriteString("\n" + errStyle.Render(s.err))
	}
	return b.String()
}

// --- OTP ---

const otpLength = 6

type OTPScreen struct {
	base
	userID int64
	email  string
	form   form
	busy   bool
	err    string
}

func NewOTP(deps *Deps, userID int64, email string) *OTPScreen {
	return &OTPScreen{
		base:   newBase(deps),
		userID: userID,
		email:  email,
		form:   newForm(field{label: "Verification code", limit: otpLength}),
	}
}

func (s *OTPScreen) Title() string       { return "Verify your email" }
func (s *OTPScreen) Init() tea.Cmd       { return nil }
func (s *OTPScreen) KeyHints() []KeyHint { return formHints("Verify") }

func (s *OTPScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tokenMsg:
		s.busy = false
		if msg.err != nil {
			s.err = detailOr(msg.err, "Invalid OTP")
			return s, nil
		}
		return s, s.signIn(msg.result.Token)
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, pop
		case "enter":
			return s, s.submit()
		}
	}
	cmd, _ := s.form.update(msg)
	return s, cmd
}

func (s *OTPScreen) submit() tea.Cmd {
	code := s.form.value(0)
	if !validOTP(code) {
		s.err = "Please enter a valid 6-digit OTP code"
		return nil
	}
	s.err, s.busy = "", true
	to, deps, userID := s.renew(), s.deps, s.userID
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		tok, err := deps.API.VerifyOTP(ctx, userID, code)
		return tokenMsg{to: to, result: apiclient.LoginResult{Token: tok}, err: err}
	}
}

func validOTP(code string) bool {
	if len(code) != otpLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *OTPScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("Enter the 6-digit code sent to "+s.email) + "\n\n")
	b.WriteString(s.form.view(nil))
	if s.busy {
		b.WriteString("\n" + loadingView("Verifying"))
	}
	if s.err != "" {
		b.WriteString("\n" + errStyle.Render(s.err))
	}
	return b.String()
}
