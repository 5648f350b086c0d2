package devapi_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-revise/internal/auth/middleware"
	"github.com/mind-engage/mindengage-revise/internal/db"
	"github.com/mind-engage/mindengage-revise/internal/devapi"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type harness struct {
	t   *testing.T
	srv *httptest.Server

	mu   sync.Mutex
	otps map[int64]string
}

func newHarness(t *testing.T, opts devapi.Options) *harness {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", devapi.Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, devapi.Seed(ctx, h, bcrypt.MinCost))

	hs := &harness{t: t, otps: map[int64]string{}}
	opts.BcryptCost = bcrypt.MinCost
	opts.OTPSink = func(_ string, id int64, code string) {
		hs.mu.Lock()
		hs.otps[id] = code
		hs.mu.Unlock()
	}
	srv := devapi.New(devapi.NewStore(h), authmw.NewAuthService("test-secret", time.Hour), zerolog.Nop(), opts)
	hs.srv = httptest.NewServer(srv.Router())
	t.Cleanup(hs.srv.Close)
	return hs
}

func (h *harness) otp(id int64) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.otps[id]
}

func (h *harness) do(method, path, token string, body any, out any) int {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.srv.URL+api.BasePath+path, rdr)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (h *harness) login(email, password string, out any) int {
	h.t.Helper()
	form := url.Values{"grant_type": {"password"}, "username": {email}, "password": {password}}
	res, err := http.Post(h.srv.URL+api.BasePath+"/auth/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	defer res.Body.Close()
	require.NoError(h.t, json.NewDecoder(res.Body).Decode(out))
	return res.StatusCode
}

func (h *harness) seedToken() string {
	h.t.Helper()
	var tok api.Token
	require.Equal(h.t, http.StatusOK, h.login(devapi.SeedEmail, devapi.SeedPassword, &tok))
	require.NotEmpty(h.t, tok.AccessToken)
	return tok.AccessToken
}

// chapterID walks Class 10 > Mathematics > title.
func (h *harness) chapterID(tok, title string) int64 {
	h.t.Helper()
	var classes []api.Class
	h.do(http.MethodGet, "/classes", tok, nil, &classes)
	var classID int64
	for _, c := range classes {
		if c.Name == "Class 10" {
			classID = c.ID
		}
	}
	var subjects []api.Subject
	h.do(http.MethodGet, "/subjects/"+itoa(classID), tok, nil, &subjects)
	var subjectID int64
	for _, s := range subjects {
		if s.Name == "Mathematics" {
			subjectID = s.ID
		}
	}
	var chapters []api.Chapter
	h.do(http.MethodGet, "/chapters/"+itoa(subjectID), tok, nil, &chapters)
	for _, c := range chapters {
		if c.Title == title {
			return c.ID
		}
	}
	h.t.Fatalf("chapter %q not seeded", title)
	return 0
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestSeedLoginAndMe(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	tok := h.seedToken()

	var me api.User
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/auth/me", tok, nil, &me))
	assert.Equal(t, devapi.SeedEmail, me.Email)

	var bad api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, h.login(devapi.SeedEmail, "wrong", &bad))
	assert.Equal(t, "Incorrect email or password", bad.Detail)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	var body api.ErrorBody
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/classes", "", nil, &body))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/classes", "forged", nil, &body))
}

func TestSignupOTPFlow(t *testing.T) {
	h := newHarness(t, devapi.Options{})

	var u api.User
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/signup", "", api.Signup{Email: "Asha@Example.com", Password: "pw123456"}, &u))
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Len(t, h.otp(u.ID), 6)

	var dup api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/auth/signup", "", api.Signup{Email: "asha@example.com", Password: "x"}, &dup))

	var need api.OTPRequired
	require.Equal(t, http.StatusForbidden, h.login("asha@example.com", "pw123456", &need))
	assert.True(t, need.RequiresOTP)
	assert.Equal(t, u.ID, need.UserID)

	var wrong api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/auth/verify-otp", "", api.VerifyOTP{UserID: u.ID, OTPCode: "xxxxxx"}, &wrong))
	assert.Equal(t, "Invalid OTP", wrong.Detail)

	var tok api.Token
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/verify-otp", "", api.VerifyOTP{UserID: u.ID, OTPCode: h.otp(u.ID)}, &tok))
	assert.Equal(t, "bearer", tok.TokenType)

	var again api.Token
	assert.Equal(t, http.StatusOK, h.login("asha@example.com", "pw123456", &again))
	assert.NotEmpty(t, again.AccessToken)
}

func TestExpiredOTP(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	h := newHarness(t, devapi.Options{OTPTTL: time.Minute, Now: clock})

	var u api.User
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/signup", "", api.Signup{Email: "late@example.com", Password: "pw"}, &u))
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	var body api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/auth/verify-otp", "", api.VerifyOTP{UserID: u.ID, OTPCode: h.otp(u.ID)}, &body))
	assert.Equal(t, "OTP has expired", body.Detail)
}

func TestContentBrowse(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	tok := h.seedToken()

	var classes []api.Class
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/classes", tok, nil, &classes))
	require.Len(t, classes, 7)
	assert.Equal(t, "Class 6", classes[0].Name)

	rn := h.chapterID(tok, "Real Numbers")
	var mcqs []api.MCQ
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/mcqs/"+itoa(rn), tok, nil, &mcqs))
	assert.Len(t, mcqs, 5)
	assert.Equal(t, "C", mcqs[0].Correct)

	var cards []api.Flashcard
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/flashcards/"+itoa(rn), tok, nil, &cards))
	assert.Equal(t, "What is a rational number?", cards[0].Question)

	var none []api.MCQ
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/mcqs/99999", tok, nil, &none))
	assert.Empty(t, none)
}

func TestGenerateRespectsDailyLimit(t *testing.T) {
	h := newHarness(t, devapi.Options{AIDailyLimit: 1})
	tok := h.seedToken()

	var full []api.MCQ
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/ai/generate-mcq/"+itoa(h.chapterID(tok, "Real Numbers")), tok, nil, &full))
	assert.Len(t, full, 5)

	var gen []api.MCQ
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/ai/generate-mcq/"+itoa(h.chapterID(tok, "Polynomials")), tok, nil, &gen))
	assert.Len(t, gen, 3)

	var limited api.ErrorBody
	require.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/ai/generate-mcq/"+itoa(h.chapterID(tok, "Quadratic Equations")), tok, nil, &limited))
	assert.Contains(t, limited.Detail, "limit of 1 AI requests")

	// a full pool is still served after the limit is hit
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/ai/generate-mcq/"+itoa(h.chapterID(tok, "Polynomials")), tok, nil, &gen))
	assert.Len(t, gen, 5)
}

func TestGenerateWithNothingToServe(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	tok := h.seedToken()

	var body api.ErrorBody
	assert.Equal(t, http.StatusInternalServerError,
		h.do(http.MethodPost, "/ai/generate-flashcard/"+itoa(h.chapterID(tok, "Arithmetic Progressions")), tok, nil, &body))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/ai/generate-flashcard/99999", tok, nil, &body))
}

func TestProgressAndStats(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	tok := h.seedToken()
	rn := h.chapterID(tok, "Real Numbers")

	var p api.Progress
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/progress/update", tok, api.ProgressUpdate{ChapterID: rn, CorrectAnswers: 7, TotalQuestions: 10}, &p))
	assert.InDelta(t, 70.0, p.Accuracy, 0.001)
	assert.Equal(t, 1, p.Streak)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/progress/update", tok, api.ProgressUpdate{ChapterID: rn, CorrectAnswers: 9, TotalQuestions: 10}, &p))
	assert.InDelta(t, 80.0, p.Accuracy, 0.001)
	assert.Equal(t, 2, p.Streak)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/progress/update", tok, api.ProgressUpdate{ChapterID: 0, CorrectAnswers: 5, TotalQuestions: 10}, &p))

	var st api.Stats
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/revision/progress/stats", tok, nil, &st))
	assert.Equal(t, api.Stats{Accuracy: 65, CompletedChapters: 1, TotalQuizzes: 3, Streak: 2}, st)

	var bad api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/revision/progress/update", tok, api.ProgressUpdate{ChapterID: rn, CorrectAnswers: 11, TotalQuestions: 10}, &bad))
}

func TestResetQuota(t *testing.T) {
	h := newHarness(t, devapi.Options{MaxResets: 2})
	tok := h.seedToken()
	rn := h.chapterID(tok, "Real Numbers")

	var mcqs []api.MCQ
	h.do(http.MethodGet, "/mcqs/"+itoa(rn), tok, nil, &mcqs)
	var at api.Attempt
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/attempts", tok, api.AttemptIn{ChapterID: rn, MCQID: mcqs[0].ID, SelectedAnswer: "c"}, &at))
	assert.True(t, at.IsCorrect)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/attempts", tok, api.AttemptIn{ChapterID: rn, MCQID: mcqs[1].ID, SelectedAnswer: "A"}, &at))
	assert.False(t, at.IsCorrect)

	var st api.ResetStatus
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/revision/reset/"+itoa(rn), tok, nil, &st))
	assert.Equal(t, api.ResetStatus{ChapterID: rn, ResetCount: 0, RemainingResets: 2, MaxResets: 2}, st)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/reset/"+itoa(rn), tok, nil, &st))
	assert.Equal(t, 1, st.RemainingResets)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/revision/reset/"+itoa(rn), tok, nil, &st))
	assert.Equal(t, 0, st.RemainingResets)

	var body api.ErrorBody
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/revision/reset/"+itoa(rn), tok, nil, &body))
	assert.Equal(t, "Reset limit reached for this chapter", body.Detail)

	var missing api.ErrorBody
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/revision/attempts", tok, api.AttemptIn{MCQID: 424242, SelectedAnswer: "A"}, &missing))
}

func TestProfileUpdateAndDaily(t *testing.T) {
	h := newHarness(t, devapi.Options{})
	tok := h.seedToken()

	var body api.ErrorBody
	short := "ab"
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/auth/me", tok, api.ProfileUpdate{Username: &short}, &body))
	phone := "12345"
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/auth/me", tok, api.ProfileUpdate{Phone: &phone}, &body))

	var classes []api.Class
	h.do(http.MethodGet, "/classes", tok, nil, &classes)
	class10 := classes[4].ID
	name, good := "  asha  ", "9876543210"
	var me api.User
	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, "/auth/me", tok, api.ProfileUpdate{Username: &name, Phone: &good, ClassID: &class10}, &me))
	require.NotNil(t, me.Username)
	assert.Equal(t, "asha", *me.Username)
	require.NotNil(t, me.ClassID)
	assert.Equal(t, class10, *me.ClassID)

	var daily []api.MCQ
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/revision/daily", tok, nil, &daily))
	assert.Len(t, daily, 7)
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, api.Stats{}, devapi.Aggregate(nil))
	st := devapi.Aggregate([]api.Progress{
		{ChapterID: 1, Accuracy: 66.6, Streak: 3},
		{ChapterID: 2, Accuracy: 100, Streak: 1},
	})
	assert.Equal(t, api.Stats{Accuracy: 83, CompletedChapters: 2, TotalQuizzes: 4, Streak: 3}, st)
}
