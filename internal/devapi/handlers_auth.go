package devapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// POST /auth/signup {email, password}
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in api.Signup
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "hash password")
		return
	}
	code, err := newOTP()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "issue otp")
		return
	}
	acc, err := s.store.CreateUser(r.Context(), in.Email, string(hash), code, s.opts.Now().Add(s.opts.OTPTTL))
	if errors.Is(err, ErrEmailTaken) {
		writeDetail(w, http.StatusBadRequest, "The user with this email already exists in the system.")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("signup")
		writeDetail(w, http.StatusInternalServerError, "could not create user")
		return
	}
	s.opts.OTPSink(acc.Email, acc.ID, code)
	writeJSON(w, http.StatusOK, acc.User)
}

// POST /auth/login, form username/password (OAuth2 password grant). An
// unverified account gets a fresh OTP and a 403 naming the user id.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad form")
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("username")))
	acc, err := s.store.UserByEmail(r.Context(), email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(r.PostForm.Get("password"))) != nil {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}
	if !acc.Verified {
		code, err := newOTP()
		if err == nil {
			err = s.store.SetOTP(r.Context(), acc.ID, code, s.opts.Now().Add(s.opts.OTPTTL))
		}
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "issue otp")
			return
		}
		s.opts.OTPSink(acc.Email, acc.ID, code)
		writeJSON(w, http.StatusForbidden, api.OTPRequired{
			Detail:      "OTP verification required",
			RequiresOTP: true,
			UserID:      acc.ID,
		})
		return
	}
	s.issueToken(w, acc.ID)
}

// POST /auth/verify-otp {user_id, otp_code}
func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in api.VerifyOTP
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	acc, err := s.store.UserByID(r.Context(), in.UserID)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "lookup user")
		return
	}
	if !acc.OTPCode.Valid || acc.OTPCode.String != in.OTPCode {
		writeDetail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if acc.OTPExpiresAt.Valid && s.opts.Now().Unix() > acc.OTPExpiresAt.Int64 {
		writeDetail(w, http.StatusBadRequest, "OTP has expired")
		return
	}
	if err := s.store.MarkVerified(r.Context(), acc.ID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "verify user")
		return
	}
	s.issueToken(w, acc.ID)
}

func (s *Server) issueToken(w http.ResponseWriter, userID int64) {
	tok, err := s.auth.IssueJWT(strconv.FormatInt(userID, 10))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "issue token")
		return
	}
	writeJSON(w, http.StatusOK, api.Token{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.auth.TTL().Seconds()),
	})
}

// GET /auth/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	acc, err := s.store.UserByID(r.Context(), uid)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "lookup user")
		return
	}
	writeJSON(w, http.StatusOK, acc.User)
}

// PATCH /auth/me {username, phone, class_id, user_type}
func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	var in api.ProfileUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	if msg := validateProfile(&in); msg != "" {
		writeDetail(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpdateProfile(r.Context(), uid, in); err != nil {
		writeDetail(w, http.StatusInternalServerError, "update profile")
		return
	}
	s.me(w, r)
}

func validateProfile(p *api.ProfileUpdate) string {
	if p.Username != nil {
		u := strings.TrimSpace(*p.Username)
		if len([]rune(u)) < 3 {
			return "Username must be at least 3 characters"
		}
		p.Username = &u
	}
	if p.Phone != nil && *p.Phone != "" && !phonePattern.MatchString(*p.Phone) {
		return "Enter a valid 10-digit mobile number"
	}
	if p.UserType != nil && *p.UserType != "student" && *p.UserType != "parent" {
		return "user_type must be student or parent"
	}
	return ""
}
