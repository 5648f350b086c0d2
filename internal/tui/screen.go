// Package tui is the terminal front end: a stack of screens driven by
// bubbletea, talking to the revision API.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Screen is one entry of the navigation stack.
type Screen interface {
	// ID identifies the screen's current load. Messages addressed to an ID
	// that is no longer on the stack are dropped.
	ID() string
	Title() string
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
}

type KeyHint struct {
	Key         string
	Description string
}

// KeyHintProvider is implemented by screens that show a key legend.
type KeyHintProvider interface {
	KeyHints() []KeyHint
}

// PushMsg opens Screen on top of the current one.
type PushMsg struct{ Screen Screen }

// PopMsg closes the top screen. Popping the last screen quits.
type PopMsg struct{}

// ReplaceMsg swaps the top screen for Screen.
type ReplaceMsg struct{ Screen Screen }

// ResetMsg drops the whole stack and starts over at Screen.
type ResetMsg struct {
	Screen Screen
	Notice string
}

// addressed is implemented by results of background work; they are
// delivered to the screen whose ID matches, wherever it sits on the stack.
type addressed interface {
	target() string
}

// failure is implemented by results that may carry an API error.
type failure interface {
	failed() error
}

func push(s Screen) tea.Cmd    { return func() tea.Msg { return PushMsg{Screen: s} } }
func pop() tea.Msg             { return PopMsg{} }
func replace(s Screen) tea.Cmd { return func() tea.Msg { return ReplaceMsg{Screen: s} } }
