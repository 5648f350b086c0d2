package quiz

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNoItems = errors.New("quiz: no items")

// Completion is what a scored session hands to its Reporter when it ends.
type Completion struct {
	SessionID string
	TopicID   int64 // chapter id; 0 for the daily set
	Correct   int
	Total     int
}

// Reporter receives the completion of scored sessions.
// Report must not block: delivery is the reporter's business and its
// outcome never reaches the session.
type Reporter interface {
	Report(c Completion)
}

type Option func(*Session)

func WithMode(m Mode) Option             { return func(s *Session) { s.mode = m } }
func WithReporter(r Reporter) Option     { return func(s *Session) { s.reporter = r } }
func WithSessionID(id string) Option     { return func(s *Session) { s.id = id } }
func WithAnswerHook(h AnswerHook) Option { return func(s *Session) { s.onAnswer = h } }

// AnswerHook observes every honored selection. It runs synchronously.
type AnswerHook func(item Item, selected Label, correct bool)

// Session is one walk through an ordered list of items. It is owned by a
// single event loop and does no locking.
type Session struct {
	id       string
	topic    int64
	mode     Mode
	items    []Item
	reporter Reporter
	onAnswer AnswerHook

	index     int
	selected  Label
	score     int
	completed bool
}

// NewSession starts a session over items. An empty list never yields a
// session.
func NewSession(topic int64, items []Item, opts ...Option) (*Session, error) {
	if len(items) == 0 {
		return nil, errors.Wrapf(ErrNoItems, "topic %d", topic)
	}
	s := &Session{
		topic: topic,
		mode:  Scored,
		items: append([]Item(nil), items...),
	}
	for _, o := range opts {
		o(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s, nil
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Topic() int64    { return s.topic }
func (s *Session) Mode() Mode      { return s.mode }
func (s *Session) Len() int        { return len(s.items) }
func (s *Session) Index() int      { return s.index }
func (s *Session) Score() int      { return s.score }
func (s *Session) Completed() bool { return s.completed }
func (s *Session) Current() Item   { return s.items[s.index] }
func (s *Session) IsLast() bool    { return s.index == len(s.items)-1 }

// Selected returns the label committed for the current item, if any.
func (s *Session) Selected() (Label, bool) { return s.selected, s.selected != "" }

func (s *Session) Answered() bool { return s.selected != "" }

// SelectAnswer commits label for the current item. Only the first call per
// item is honored; it reports whether this call changed state.
func (s *Session) SelectAnswer(label Label) bool {
	if s.completed || s.selected != "" || label == "" {
		return false
	}
	s.selected = label
	item := s.items[s.index]
	correct := item.IsCorrect(label)
	if correct && s.mode == Scored {
		s.score++
	}
	if s.onAnswer != nil {
		s.onAnswer(item, label, correct)
	}
	return true
}

// Advance moves to the next item, or completes the session when called on
// the last one. Scored sessions need a committed answer first.
func (s *Session) Advance() bool {
	if s.completed {
		return false
	}
	if s.mode == Scored && s.selected == "" {
		return false
	}
	if s.index == len(s.items)-1 {
		s.completed = true
		if s.mode == Scored && s.reporter != nil {
			s.reporter.Report(Completion{
				SessionID: s.id,
				TopicID:   s.topic,
				Correct:   s.score,
				Total:     len(s.items),
			})
		}
		return true
	}
	s.index++
	s.selected = ""
	return true
}

// Summary presents the final tally. ok is false until the session completes.
func (s *Session) Summary() (sum Summary, ok bool) {
	if !s.completed {
		return Summary{}, false
	}
	return Summarize(s.score, len(s.items)), true
}
