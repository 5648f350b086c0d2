// Package apiclient is the typed HTTP client for the revision API.
package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type Client struct {
	http           *req.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	log            zerolog.Logger
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option               { return func(c *Client) { c.tokens = ts } }
func WithUnauthorizedHook(f func(context.Context)) Option { return func(c *Client) { c.onUnauthorized = f } }
func WithLogger(l zerolog.Logger) Option                  { return func(c *Client) { c.log = l } }
func WithTimeout(d time.Duration) Option                  { return func(c *Client) { c.http.SetTimeout(d) } }

// New builds a client for baseURL, e.g. http://localhost:8000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	c := &Client{
		http: req.C().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetJsonMarshal(json.Marshal).
			SetJsonUnmarshal(json.Unmarshal).
			SetCommonHeader("Accept", "application/json"),
		baseURL: baseURL,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	r := c.http.R().SetContext(ctx)
	if c.tokens != nil {
		if tok, err := c.tokens.AccessToken(ctx); err == nil && tok != "" {
			r.SetBearerAuthToken(tok)
		}
	}
	if in != nil {
		r.SetBody(in)
	}
	if out != nil {
		r.SetSuccessResult(out)
	}
	resp, err := r.Send(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsErrorState() {
		body, _ := resp.ToBytes()
		return c.fail(ctx, method, path, resp.StatusCode, body)
	}
	return nil
}

func (c *Client) fail(ctx context.Context, method, path string, status int, body []byte) error {
	var eb api.ErrorBody
	_ = json.Unmarshal(body, &eb)
	apiErr := &Error{Status: status, Detail: eb.Detail}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", status).Str("detail", eb.Detail).Msg("api error")
	if status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return apiErr
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func (c *Client) Signup(ctx context.Context, email, password string) (api.User, error) {
	var u api.User
	err := c.call(ctx, http.MethodPost, "/auth/signup", api.Signup{Email: email, Password: password}, &u)
	return u, err
}

func (c *Client) VerifyOTP(ctx context.Context, userID int64, code string) (string, error) {
	var tok api.Token
	if err := c.call(ctx, http.MethodPost, "/auth/verify-otp", api.VerifyOTP{UserID: userID, OTPCode: code}, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (c *Client) Me(ctx context.Context) (api.User, error) {
	var u api.User
	err := c.call(ctx, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

func (c *Client) UpdateMe(ctx context.Context, p api.ProfileUpdate) (api.User, error) {
	var u api.User
	err := c.call(ctx, http.MethodPatch, "/auth/me", p, &u)
	return u, err
}

func (c *Client) Classes(ctx context.Context) ([]api.Class, error) {
	var out []api.Class
	err := c.call(ctx, http.MethodGet, "/classes", nil, &out)
	return out, err
}

func (c *Client) Subjects(ctx context.Context, classID int64) ([]api.Subject, error) {
	var out []api.Subject
	err := c.call(ctx, http.MethodGet, "/subjects/"+id(classID), nil, &out)
	return out, err
}

func (c *Client) Chapters(ctx context.Context, subjectID int64) ([]api.Chapter, error) {
	var out []api.Chapter
	err := c.call(ctx, http.MethodGet, "/chapters/"+id(subjectID), nil, &out)
	return out, err
}

func (c *Client) Flashcards(ctx context.Context, chapterID int64) ([]api.Flashcard, error) {
	var out []api.Flashcard
	err := c.call(ctx, http.MethodGet, "/flashcards/"+id(chapterID), nil, &out)
	return out, err
}

func (c *Client) MCQs(ctx context.Context, chapterID int64) ([]api.MCQ, error) {
	var out []api.MCQ
	err := c.call(ctx, http.MethodGet, "/mcqs/"+id(chapterID), nil, &out)
	return out, err
}

// GenerateMCQs asks the server for a practice set. A 429 matches
// ErrRateLimited and carries the server's message.
func (c *Client) GenerateMCQs(ctx context.Context, chapterID int64) ([]api.MCQ, error) {
	var out []api.MCQ
	err := c.call(ctx, http.MethodPost, "/ai/generate-mcq/"+id(chapterID), nil, &out)
	return out, err
}

func (c *Client) GenerateFlashcards(ctx context.Context, chapterID int64) ([]api.Flashcard, error) {
	var out []api.Flashcard
	err := c.call(ctx, http.MethodPost, "/ai/generate-flashcard/"+id(chapterID), nil, &out)
	return out, err
}

func (c *Client) Daily(ctx context.Context) ([]api.MCQ, error) {
	var out []api.MCQ
	err := c.call(ctx, http.MethodGet, "/revision/daily", nil, &out)
	return out, err
}

func (c *Client) UpdateProgress(ctx context.Context, in api.ProgressUpdate) (api.Progress, error) {
	var out api.Progress
	err := c.call(ctx, http.MethodPost, "/revision/progress/update", in, &out)
	return out, err
}

func (c *Client) ProgressStats(ctx context.Context) (api.Stats, error) {
	var out api.Stats
	err := c.call(ctx, http.MethodGet, "/revision/progress/stats", nil, &out)
	return out, err
}

func (c *Client) RecordAnswer(ctx context.Context, in api.AttemptIn) (api.Attempt, error) {
	var out api.Attempt
	err := c.call(ctx, http.MethodPost, "/revision/attempts", in, &out)
	return out, err
}

func (c *Client) ResetStatus(ctx context.Context, chapterID int64) (api.ResetStatus, error) {
	var out api.ResetStatus
	err := c.call(ctx, http.MethodGet, "/revision/reset/"+id(chapterID), nil, &out)
	return out, err
}

// ResetAnswers spends one reset. Once the quota is gone the server answers
// 403, which matches ErrQuotaExhausted.
func (c *Client) ResetAnswers(ctx context.Context, chapterID int64) (api.ResetStatus, error) {
	var out api.ResetStatus
	err := c.call(ctx, http.MethodPost, "/revision/reset/"+id(chapterID), nil, &out)
	return out, err
}
