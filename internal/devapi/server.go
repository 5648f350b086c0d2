package devapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-revise/internal/auth/middleware"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

type Options struct {
	AIDailyLimit int
	MaxResets    int
	OTPTTL       time.Duration
	BcryptCost   int
	CORSOrigins  []string
	Generator    Generator

	// OTPSink receives every issued code; there is no mail delivery.
	OTPSink func(email string, userID int64, code string)
	Now     func() time.Time
}

type Server struct {
	store *Store
	auth  *authmw.AuthService
	opts  Options
	log   zerolog.Logger
}

func New(store *Store, a *authmw.AuthService, log zerolog.Logger, opts Options) *Server {
	if opts.AIDailyLimit <= 0 {
		opts.AIDailyLimit = 5
	}
	if opts.MaxResets <= 0 {
		opts.MaxResets = 2
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Generator == nil {
		opts.Generator = DefaultBank()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{store: store, auth: a, opts: opts, log: log}
	if s.opts.OTPSink == nil {
		s.opts.OTPSink = func(email string, userID int64, code string) {
			s.log.Info().Str("email", email).Int64("user_id", userID).Str("otp", code).Msg("otp issued")
		}
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the revision API"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route(api.BasePath, func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", s.signup)
			ar.Post("/login", s.login)
			ar.Post("/verify-otp", s.verifyOTP)
			ar.Group(func(pr chi.Router) {
				pr.Use(authmw.JWTMiddleware(s.auth))
				pr.Get("/me", s.me)
				pr.Patch("/me", s.updateMe)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authmw.JWTMiddleware(s.auth))

			pr.Get("/classes", s.classes)
			pr.Get("/subjects/{classID}", s.subjects)
			pr.Get("/chapters/{subjectID}", s.chapters)
			pr.Get("/flashcards/{chapterID}", s.flashcards)
			pr.Get("/mcqs/{chapterID}", s.mcqs)

			pr.Post("/ai/generate-mcq/{chapterID}", s.generateMCQs)
			pr.Post("/ai/generate-flashcard/{chapterID}", s.generateFlashcards)

			pr.Route("/revision", func(rr chi.Router) {
				rr.Post("/progress/update", s.updateProgress)
				rr.Get("/progress/stats", s.progressStats)
				rr.Get("/daily", s.daily)
				rr.Post("/attempts", s.recordAttempt)
				rr.Get("/reset/{chapterID}", s.resetStatus)
				rr.Post("/reset/{chapterID}", s.resetAnswers)
			})
		})
	})
	return r
}

func (s *Server) today() string { return s.opts.Now().UTC().Format("2006-01-02") }
