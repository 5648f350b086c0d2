package apiclient_test

import (
	"context"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-revise/internal/apiclient"
	"github.com/mind-engage/mindengage-revise/internal/auth"
	authmw "github.com/mind-engage/mindengage-revise/internal/auth/middleware"
	"github.com/mind-engage/mindengage-revise/internal/db"
	"github.com/mind-engage/mindengage-revise/internal/devapi"
	"github.com/mind-engage/mindengage-revise/internal/loader"
	"github.com/mind-engage/mindengage-revise/internal/quiz"
	"github.com/mind-engage/mindengage-revise/internal/securestore"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type fixture struct {
	client  *apiclient.Client
	session *auth.Session

	mu   sync.Mutex
	otps map[int64]string
}

func newFixture(t *testing.T, opts devapi.Options) *fixture {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", devapi.Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, devapi.Seed(ctx, h, bcrypt.MinCost))

	f := &fixture{otps: map[int64]string{}}
	opts.BcryptCost = bcrypt.MinCost
	opts.OTPSink = func(_ string, id int64, code string) {
		f.mu.Lock()
		f.otps[id] = code
		f.mu.Unlock()
	}
	srv := httptest.NewServer(devapi.New(devapi.NewStore(h), authmw.NewAuthService("s", time.Hour), zerolog.Nop(), opts).Router())
	t.Cleanup(srv.Close)

	sealer, err := securestore.NewSealer("test")
	require.NoError(t, err)
	store, err := securestore.NewFSStore(t.TempDir(), sealer)
	require.NoError(t, err)
	f.session = auth.NewSession(store, zerolog.Nop())
	require.NoError(t, f.session.Init(ctx))

	f.client = apiclient.New(srv.URL+api.BasePath+"/",
		apiclient.WithTokenSource(f.session),
		apiclient.WithUnauthorizedHook(f.session.Unauthorized),
		apiclient.WithTimeout(5*time.Second),
	)
	return f
}

func (f *fixture) loginSeed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	res, err := f.client.Login(ctx, devapi.SeedEmail, devapi.SeedPassword)
	require.NoError(t, err)
	require.False(t, res.RequiresOTP)
	require.NoError(t, f.session.Login(ctx, res.Token))
}

func (f *fixture) chapter(t *testing.T, title string) int64 {
	t.Helper()
	ctx := context.Background()
	classes, err := f.client.Classes(ctx)
	require.NoError(t, err)
	subjects, err := f.client.Subjects(ctx, classes[4].ID)
	require.NoError(t, err)
	chapters, err := f.client.Chapters(ctx, subjects[0].ID)
	require.NoError(t, err)
	for _, c := range chapters {
		if c.Title == title {
			return c.ID
		}
	}
	t.Fatalf("no chapter %q", title)
	return 0
}

func TestLoginAndBrowse(t *testing.T) {
	f := newFixture(t, devapi.Options{})
	f.loginSeed(t)
	ctx := context.Background()

	me, err := f.client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, devapi.SeedEmail, me.Email)
	assert.Equal(t, f.session.Subject(), itoa(me.ID))

	mcqs, err := f.client.MCQs(ctx, f.chapter(t, "Real Numbers"))
	require.NoError(t, err)
	items := apiclient.Items(mcqs)
	require.Len(t, items, 5)
	assert.True(t, items[0].IsCorrect(quiz.LabelC))
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t, devapi.Options{})
	_, err := f.client.Login(context.Background(), devapi.SeedEmail, "nope")
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Incorrect email or password", apiclient.Detail(err))
}

func TestSignupNeedsOTP(t *testing.T) {
	f := newFixture(t, devapi.Options{})
	ctx := context.Background()

	u, err := f.client.Signup(ctx, "new@example.com", "secret1")
	require.NoError(t, err)

	res, err := f.client.Login(ctx, "new@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, res.RequiresOTP)
	assert.Equal(t, u.ID, res.UserID)

	f.mu.Lock()
	code := f.otps[u.ID]
	f.mu.Unlock()
	tok, err := f.client.VerifyOTP(ctx, u.ID, code)
	require.NoError(t, err)
	require.NoError(t, f.session.Login(ctx, tok))

	me, err := f.client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", me.Email)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t, devapi.Options{})
	ctx := context.Background()
	require.NoError(t, f.session.Login(ctx, "forged"))

	_, err := f.client.Classes(ctx)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.False(t, f.session.IsAuthenticated())
}

func TestRateLimitedGeneration(t *testing.T) {
	f := newFixture(t, devapi.Options{AIDailyLimit: 1})
	f.loginSeed(t)
	ctx := context.Background()

	_, err := f.client.GenerateMCQs(ctx, f.chapter(t, "Polynomials"))
	require.NoError(t, err)

	quadratic := f.chapter(t, "Quadratic Equations")
	_, err = f.client.GenerateMCQs(ctx, quadratic)
	assert.ErrorIs(t, err, apiclient.ErrRateLimited)
	assert.True(t, apiclient.IsRateLimited(err))
	assert.Contains(t, apiclient.Detail(err), "limit of 1")

	_, err = loader.Load(ctx, "practice", func(ctx context.Context, _ string) ([]api.MCQ, error) {
		return f.client.GenerateMCQs(ctx, quadratic)
	}, loader.Policy[api.MCQ]{IsRateLimited: apiclient.IsRateLimited})
	var le *loader.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, loader.RateLimited, le.Kind)
}

func TestResetQuotaExhausted(t *testing.T) {
	f := newFixture(t, devapi.Options{MaxResets: 1})
	f.loginSeed(t)
	ctx := context.Background()
	rn := f.chapter(t, "Real Numbers")

	st, err := f.client.ResetStatus(ctx, rn)
	require.NoError(t, err)
	assert.Equal(t, 1, st.RemainingResets)

	st, err = f.client.ResetAnswers(ctx, rn)
	require.NoError(t, err)
	assert.Equal(t, 0, st.RemainingResets)

	_, err = f.client.ResetAnswers(ctx, rn)
	assert.ErrorIs(t, err, apiclient.ErrQuotaExhausted)
}

func TestProgressRoundTrip(t *testing.T) {
	f := newFixture(t, devapi.Options{})
	f.loginSeed(t)
	ctx := context.Background()
	rn := f.chapter(t, "Real Numbers")

	_, err := f.client.UpdateProgress(ctx, api.ProgressUpdate{ChapterID: rn, CorrectAnswers: 4, TotalQuestions: 5})
	require.NoError(t, err)
	st, err := f.client.ProgressStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.Stats{Accuracy: 80, CompletedChapters: 1, TotalQuizzes: 1, Streak: 1}, st)

	daily, err := f.client.Daily(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, daily)

	at, err := f.client.RecordAnswer(ctx, api.AttemptIn{ChapterID: rn, MCQID: daily[0].ID, SelectedAnswer: daily[0].Correct})
	require.NoError(t, err)
	assert.True(t, at.IsCorrect)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
