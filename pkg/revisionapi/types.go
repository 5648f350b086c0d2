// Package revisionapi holds the wire types of the revision HTTP API
// (base path /api/v1). Field names follow the JSON the server emits.
package revisionapi

import "time"

const BasePath = "/api/v1"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Username  *string   `json:"username"`
	Phone     *string   `json:"phone"`
	ClassID   *int64    `json:"class_id"`
	UserType  *string   `json:"user_type"`
}

type Signup struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyOTP struct {
	UserID  int64  `json:"user_id"`
	OTPCode string `json:"otp_code"`
}

// Token is the login and verify-otp response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// OTPRequired is the body of a 403 login response for an unverified
// account.
type OTPRequired struct {
	Detail      string `json:"detail"`
	RequiresOTP bool   `json:"requires_otp"`
	UserID      int64  `json:"user_id"`
}

// ProfileUpdate is a partial update; nil fields are left alone.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	ClassID  *int64  `json:"class_id,omitempty"`
	UserType *string `json:"user_type,omitempty"`
}

type Class struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Subject struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ClassID int64  `json:"class_id"`
}

type Chapter struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	SubjectID int64  `json:"subject_id"`
}

type Flashcard struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapter_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

type MCQ struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapter_id"`
	Question  string `json:"question"`
	OptionA   string `json:"option_a"`
	OptionB   string `json:"option_b"`
	OptionC   string `json:"option_c"`
	OptionD   string `json:"option_d"`
	Correct   string `json:"correct"`
}

type ProgressUpdate struct {
	ChapterID      int64 `json:"chapter_id"`
	CorrectAnswers int   `json:"correct_answers"`
	TotalQuestions int   `json:"total_questions"`
}

type Progress struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ChapterID     int64     `json:"chapter_id"`
	Accuracy      float64   `json:"accuracy"`
	Streak        int       `json:"streak"`
	LastPracticed time.Time `json:"last_practiced"`
}

type Stats struct {
	Accuracy          int `json:"accuracy"`
	CompletedChapters int `json:"completed_chapters"`
	TotalQuizzes      int `json:"total_quizzes"`
	Streak            int `json:"streak"`
}

type AttemptIn struct {
	ChapterID      int64  `json:"chapter_id"`
	MCQID          int64  `json:"mcq_id"`
	SelectedAnswer string `json:"selected_answer"`
}

type Attempt struct {
	ID        int64 `json:"id"`
	IsCorrect bool  `json:"is_correct"`
}

type ResetStatus struct {
	ChapterID       int64 `json:"chapter_id"`
	ResetCount      int   `json:"reset_count"`
	RemainingResets int   `json:"remaining_resets"`
	MaxResets       int   `json:"max_resets"`
}

// ErrorBody is every non-2xx response body.
type ErrorBody struct {
	Detail string `json:"detail"`
}
