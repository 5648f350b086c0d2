package tui

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
	"github.com/mind-engage/mindengage-revise/internal/auth"
	"github.com/mind-engage/mindengage-revise/internal/quiz"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

// API is the part of *apiclient.Client the screens use.
type API interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginResult, error)
	Signup(ctx context.Context, email, password string) (api.User, error)
	VerifyOTP(ctx context.Context, userID int64, code string) (string, error)
	Me(ctx context.Context) (api.User, error)
	UpdateMe(ctx context.Context, p api.ProfileUpdate) (api.User, error)

	Classes(ctx context.Context) ([]api.Class, error)
	Subjects(ctx context.Context, classID int64) ([]api.Subject, error)
	Chapters(ctx context.Context, subjectID int64) ([]api.Chapter, error)
	Flashcards(ctx context.Context, chapterID int64) ([]api.Flashcard, error)
	GenerateMCQs(ctx context.Context, chapterID int64) ([]api.MCQ, error)
	GenerateFlashcards(ctx context.Context, chapterID int64) ([]api.Flashcard, error)
	Daily(ctx context.Context) ([]api.MCQ, error)

	ProgressStats(ctx context.Context) (api.Stats, error)
	ResetStatus(ctx context.Context, chapterID int64) (api.ResetStatus, error)
	ResetAnswers(ctx context.Context, chapterID int64) (api.ResetStatus, error)
}

// Progress receives finished sessions and individual answers.
type Progress interface {
	quiz.Reporter
	AnswerHook(chapterID int64) quiz.AnswerHook
}

type Deps struct {
	API      API
	Auth     *auth.Session
	Progress Progress // optional
	Log      zerolog.Logger

	// Timeout bounds every API call made from a screen.
	Timeout time.Duration
}

func (d *Deps) ctx() (context.Context, context.CancelFunc) {
	t := d.Timeout
	if t <= 0 {
		t = 20 * time.Second
	}
	return context.WithTimeout(context.Background(), t)
}

// sessionOptions wires the progress collaborator into a session over
// topic. Answers are recorded only when record is set.
func (d *Deps) sessionOptions(topic int64, record bool) []quiz.Option {
	if d.Progress == nil {
		return nil
	}
	opts := []quiz.Option{quiz.WithReporter(d.Progress)}
	if record {
		opts = append(opts, quiz.WithAnswerHook(d.Progress.AnswerHook(topic)))
	}
	return opts
}
