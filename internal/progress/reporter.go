// Package progress delivers finished sessions and individual answers to
// the server without ever holding up the quiz.
package progress

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
	"github.com/mind-engage/mindengage-revise/internal/quiz"
	syncx "github.com/mind-engage/mindengage-revise/internal/sync"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

const (
	typeProgress = "progress"
	typeAnswer   = "answer"

	flushBatch = 100
)

// Sender is the part of the API client the reporter needs.
type Sender interface {
	UpdateProgress(ctx context.Context, in api.ProgressUpdate) (api.Progress, error)
	RecordAnswer(ctx context.Context, in api.AttemptIn) (api.Attempt, error)
}

// Reporter implements quiz.Reporter. Every event is written to the outbox
// first (when one is configured), then sent in the background; whatever
// fails stays pending for Flush.
type Reporter struct {
	sender  Sender
	outbox  *syncx.EventRepo
	log     zerolog.Logger
	timeout time.Duration

	wg       sync.WaitGroup
	mu       sync.Mutex
	inflight map[int64]bool
}

type Option func(*Reporter)

func WithOutbox(o *syncx.EventRepo) Option   { return func(r *Reporter) { r.outbox = o } }
func WithLogger(l zerolog.Logger) Option     { return func(r *Reporter) { r.log = l } }
func WithSendTimeout(d time.Duration) Option { return func(r *Reporter) { r.timeout = d } }

func NewReporter(sender Sender, opts ...Option) *Reporter {
	r := &Reporter{
		sender:   sender,
		log:      zerolog.Nop(),
		timeout:  15 * time.Second,
		inflight: map[int64]bool{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ quiz.Reporter = (*Reporter)(nil)

// Report hands a finished session over for delivery and returns at once.
func (r *Reporter) Report(c quiz.Completion) {
	in := api.ProgressUpdate{ChapterID: c.TopicID, CorrectAnswers: c.Correct, TotalQuestions: c.Total}
	r.enqueue(typeProgress, c.SessionID, in)
}

// AnswerHook records every honored selection for chapterID. Use it with
// quiz.WithAnswerHook.
func (r *Reporter) AnswerHook(chapterID int64) quiz.AnswerHook {
	return func(item quiz.Item, selected quiz.Label, _ bool) {
		in := api.AttemptIn{ChapterID: chapterID, MCQID: item.ID, SelectedAnswer: string(selected)}
		r.enqueue(typeAnswer, strconv.FormatInt(item.ID, 10), in)
	}
}

func (r *Reporter) enqueue(typ, key string, payload any) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		data, err := json.Marshal(payload)
		if err != nil {
			r.log.Error().Err(err).Str("type", typ).Msg("encode event")
			return
		}
		ev := syncx.Event{Type: typ, Key: key, DataJSON: string(data)}
		if r.outbox != nil {
			if ev.ID, err = r.outbox.Append(ctx, ev); err != nil {
				r.log.Warn().Err(err).Str("type", typ).Msg("outbox append failed, sending anyway")
			}
		}
		r.deliver(ctx, ev)
	}()
}

// deliver sends ev once and records the outcome. It reports whether the
// server accepted it.
func (r *Reporter) deliver(ctx context.Context, ev syncx.Event) bool {
	if ev.ID != 0 {
		r.mu.Lock()
		if r.inflight[ev.ID] {
			r.mu.Unlock()
			return false
		}
		r.inflight[ev.ID] = true
		r.mu.Unlock()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, ev.ID)
			r.mu.Unlock()
		}()
	}

	err := r.send(ctx, ev)
	if err == nil {
		if ev.ID != 0 {
			if mErr := r.outbox.MarkDelivered(ctx, ev.ID); mErr != nil {
				r.log.Warn().Err(mErr).Int64("event", ev.ID).Msg("mark delivered")
			}
		}
		return true
	}

	l := r.log.Debug().Err(err).Str("type", ev.Type).Str("key", ev.Key)
	if ev.ID == 0 {
		l.Msg("event dropped")
		return false
	}
	if permanent(err) {
		l.Msg("event rejected by server")
		err = r.outbox.Drop(ctx, ev.ID, err)
	} else {
		l.Msg("event pending")
		err = r.outbox.MarkFailed(ctx, ev.ID, err)
	}
	if err != nil {
		r.log.Warn().Err(err).Int64("event", ev.ID).Msg("outbox update")
	}
	return false
}

func (r *Reporter) send(ctx context.Context, ev syncx.Event) error {
	switch ev.Type {
	case typeProgress:
		var in api.ProgressUpdate
		if err := json.Unmarshal([]byte(ev.DataJSON), &in); err != nil {
			return errors.Wrap(err, "decode progress")
		}
		_, err := r.sender.UpdateProgress(ctx, in)
		return err
	case typeAnswer:
		var in api.AttemptIn
		if err := json.Unmarshal([]byte(ev.DataJSON), &in); err != nil {
			return errors.Wrap(err, "decode answer")
		}
		_, err := r.sender.RecordAnswer(ctx, in)
		return err
	default:
		return errors.Errorf("unknown event type %q", ev.Type)
	}
}

// permanent is true for answers the server will never accept: client errors
// other than auth, timeout and rate limiting.
func permanent(err error) bool {
	var e *apiclient.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Status {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

// Flush redelivers pending events in order and returns how many went
// through. Events whose delivery is already running are skipped.
func (r *Reporter) Flush(ctx context.Context) (int, error) {
	if r.outbox == nil {
		return 0, nil
	}
	pending, err := r.outbox.Pending(ctx, flushBatch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, ev := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if r.deliver(ctx, ev) {
			sent++
		}
	}
	return sent, nil
}

// Wait blocks until background deliveries finish.
func (r *Reporter) Wait() { r.wg.Wait() }
