package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label  string
	secret bool
	limit  int
	value  string
}

// form is a column of text inputs with one focused at a time.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(fields ...field) form {
	f := form{}
	for _, fd := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fd.label
		in.CharLimit = fd.limit
		if fd.secret {
			in.EchoMode = textinput.EchoPassword
		}
		in.SetValue(fd.value)
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, in)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func (f *form) value(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
func (f *form) onLast() bool       { return f.focus == len(f.inputs)-1 }

func (f *form) move(delta int) tea.Cmd {
	n := len(f.inputs)
	if n == 0 {
		return nil
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + n) % n
	return f.inputs[f.focus].Focus()
}

// update handles focus keys and forwards everything else to the focused
// input. It reports whether the key was consumed as navigation.
func (f *form) update(msg tea.Msg) (tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "down":
			return f.move(1), true
		case "shift+tab", "up":
			return f.move(-1), true
		}
	}
	if len(f.inputs) == 0 {
		return nil, false
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, false
}

func (f *form) view(errs map[int]string) string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			label = cursorStyle.Render(label)
		}
		b.WriteString(label + "\n  " + in.View() + "\n")
		if msg := errs[i]; msg != "" {
			b.WriteString("  " + errStyle.Render(msg) + "\n")
		}
	}
	return b.String()
}

func formHints(submit string) []KeyHint {
	return []KeyHint{
		{Key: "tab", Description: "Next field"},
		{Key: "enter", Description: submit},
		{Key: "esc", Description: "Back"},
	}
}
