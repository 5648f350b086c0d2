package devapi

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-revise/internal/db"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrQuotaExhausted = errors.New("reset quota exhausted")
)

// Store is the SQL layer behind the handlers. Queries use $n placeholders,
// which both drivers accept.
type Store struct{ db *sql.DB }

func NewStore(h *sql.DB) *Store { return &Store{db: h} }

type account struct {
	api.User
	PasswordHash string
	Verified     bool
	OTPCode      sql.NullString
	OTPExpiresAt sql.NullInt64
}

// Topic names a chapter with its subject and class.
type Topic struct {
	ChapterID int64
	Chapter   string
	Subject   string
	Class     string
}

const userCols = `id, email, created_at, username, phone, class_id, user_type,
	password_hash, verified, otp_code, otp_expires_at`

func scanAccount(row interface{ Scan(...any) error }) (*account, error) {
	var (
		a        account
		created  int64
		username sql.NullString
		phone    sql.NullString
		classID  sql.NullInt64
		userType sql.NullString
	)
	err := row.Scan(&a.ID, &a.Email, &created, &username, &phone, &classID, &userType,
		&a.PasswordHash, &a.Verified, &a.OTPCode, &a.OTPExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	if username.Valid {
		a.Username = &username.String
	}
	if phone.Valid {
		a.Phone = &phone.String
	}
	if classID.Valid {
		a.ClassID = &classID.Int64
	}
	if userType.Valid {
		a.UserType = &userType.String
	}
	return &a, nil
}

func (s *Store) CreateUser(ctx context.Context, email, hash, otp string, otpExp time.Time) (*account, error) {
	if _, err := s.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, created_at, verified, otp_code, otp_expires_at, user_type)
		 VALUES ($1,$2,$3,$4,$5,$6,'student') RETURNING id`,
		email, hash, time.Now().Unix(), false, otp, otpExp.Unix()).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return s.UserByID(ctx, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (s *Store) UserByID(ctx context.Context, id int64) (*account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *Store) SetOTP(ctx context.Context, id int64, code string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET otp_code = $1, otp_expires_at = $2 WHERE id = $3`,
		code, exp.Unix(), id)
	return errors.Wrap(err, "set otp")
}

func (s *Store) MarkVerified(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET verified = $1, otp_code = NULL, otp_expires_at = NULL WHERE id = $2`, true, id)
	return errors.Wrap(err, "mark verified")
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, p api.ProfileUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Username != nil {
		add("username", *p.Username)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.ClassID != nil {
		add("class_id", *p.ClassID)
	}
	if p.UserType != nil {
		add("user_type", *p.UserType)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	_, err := s.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "update profile")
}

func (s *Store) Classes(ctx context.Context) ([]api.Class, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Class{}
	for rows.Next() {
		var c api.Class
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Subjects(ctx context.Context, classID int64) ([]api.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, class_id FROM subjects WHERE class_id = $1 ORDER BY id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Subject{}
	for rows.Next() {
		var x api.Subject
		if err := rows.Scan(&x.ID, &x.Name, &x.ClassID); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (s *Store) Chapters(ctx context.Context, subjectID int64) ([]api.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, subject_id FROM chapters WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Chapter{}
	for rows.Next() {
		var x api.Chapter
		if err := rows.Scan(&x.ID, &x.Title, &x.SubjectID); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (s *Store) Flashcards(ctx context.Context, chapterID int64) ([]api.Flashcard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chapter_id, question, answer FROM flashcards WHERE chapter_id = $1 ORDER BY id`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Flashcard{}
	for rows.Next() {
		var f api.Flashcard
		if err := rows.Scan(&f.ID, &f.ChapterID, &f.Question, &f.Answer); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const mcqCols = `m.id, m.chapter_id, m.question, m.option_a, m.option_b, m.option_c, m.option_d, m.correct`

func scanMCQs(rows *sql.Rows) ([]api.MCQ, error) {
	defer rows.Close()
	out := []api.MCQ{}
	for rows.Next() {
		var m api.MCQ
		if err := rows.Scan(&m.ID, &m.ChapterID, &m.Question,
			&m.OptionA, &m.OptionB, &m.OptionC, &m.OptionD, &m.Correct); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MCQs(ctx context.Context, chapterID int64) ([]api.MCQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mcqCols+` FROM mcqs m WHERE m.chapter_id = $1 ORDER BY m.id`, chapterID)
	if err != nil {
		return nil, err
	}
	return scanMCQs(rows)
}

func (s *Store) MCQ(ctx context.Context, id int64) (api.MCQ, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mcqCols+` FROM mcqs m WHERE m.id = $1`, id)
	if err != nil {
		return api.MCQ{}, err
	}
	list, err := scanMCQs(rows)
	if err != nil {
		return api.MCQ{}, err
	}
	if len(list) == 0 {
		return api.MCQ{}, ErrNotFound
	}
	return list[0], nil
}

// DailyMCQs picks n random questions from the user's class, or from
// anywhere when the class has none.
func (s *Store) DailyMCQs(ctx context.Context, classID *int64, n int) ([]api.MCQ, error) {
	if classID != nil {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+mcqCols+` FROM mcqs m
			 JOIN chapters c ON c.id = m.chapter_id
			 JOIN subjects s ON s.id = c.subject_id
			 WHERE s.class_id = $1 ORDER BY RANDOM() LIMIT $2`, *classID, n)
		if err != nil {
			return nil, err
		}
		out, err := scanMCQs(rows)
		if err != nil || len(out) > 0 {
			return out, err
		}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+mcqCols+` FROM mcqs m ORDER BY RANDOM() LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	return scanMCQs(rows)
}

func (s *Store) Topic(ctx context.Context, chapterID int64) (Topic, error) {
	t := Topic{ChapterID: chapterID}
	err := s.db.QueryRowContext(ctx,
		`SELECT c.title, s.name, k.name FROM chapters c
		 JOIN subjects s ON s.id = c.subject_id
		 JOIN classes k ON k.id = s.class_id
		 WHERE c.id = $1`, chapterID).Scan(&t.Chapter, &t.Subject, &t.Class)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// Usage is the number of generation requests userID made on day.
func (s *Store) Usage(ctx context.Context, userID int64, day string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT request_count FROM api_usages WHERE user_id = $1 AND usage_date = $2`, userID, day).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func bumpUsage(ctx context.Context, tx *sql.Tx, userID int64, day string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO api_usages (user_id, usage_date, request_count) VALUES ($1,$2,1)
		 ON CONFLICT (user_id, usage_date) DO UPDATE SET request_count = api_usages.request_count + 1`,
		userID, day)
	return errors.Wrap(err, "bump usage")
}

// SaveGeneratedMCQs stores items for chapterID and counts one generation
// request against userID, atomically.
func (s *Store) SaveGeneratedMCQs(ctx context.Context, userID, chapterID int64, day string, items []api.MCQ) ([]api.MCQ, error) {
	out := make([]api.MCQ, 0, len(items))
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range items {
			m.ChapterID = chapterID
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO mcqs (chapter_id, question, option_a, option_b, option_c, option_d, correct)
				 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
				chapterID, m.Question, m.OptionA, m.OptionB, m.OptionC, m.OptionD, m.Correct).Scan(&m.ID); err != nil {
				return errors.Wrap(err, "insert mcq")
			}
			out = append(out, m)
		}
		return bumpUsage(ctx, tx, userID, day)
	})
	return out, err
}

func (s *Store) SaveGeneratedFlashcards(ctx context.Context, userID, chapterID int64, day string, items []api.Flashcard) ([]api.Flashcard, error) {
	out := make([]api.Flashcard, 0, len(items))
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, f := range items {
			f.ChapterID = chapterID
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO flashcards (chapter_id, question, answer) VALUES ($1,$2,$3) RETURNING id`,
				chapterID, f.Question, f.Answer).Scan(&f.ID); err != nil {
				return errors.Wrap(err, "insert flashcard")
			}
			out = append(out, f)
		}
		return bumpUsage(ctx, tx, userID, day)
	})
	return out, err
}

// UpsertProgress folds one finished quiz into the user's chapter row: the
// accuracy is averaged with the previous value and the streak grows by one.
func (s *Store) UpsertProgress(ctx context.Context, userID int64, in api.ProgressUpdate, now time.Time) (api.Progress, error) {
	acc := 0.0
	if in.TotalQuestions > 0 {
		acc = float64(in.CorrectAnswers) / float64(in.TotalQuestions) * 100
	}
	p := api.Progress{UserID: userID, ChapterID: in.ChapterID, LastPracticed: now.UTC().Truncate(time.Second)}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id, accuracy, streak FROM progress WHERE user_id = $1 AND chapter_id = $2`,
			userID, in.ChapterID).Scan(&p.ID, &p.Accuracy, &p.Streak)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			p.Accuracy, p.Streak = acc, 1
			return tx.QueryRowContext(ctx,
				`INSERT INTO progress (user_id, chapter_id, accuracy, streak, last_practiced)
				 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
				userID, in.ChapterID, p.Accuracy, p.Streak, now.Unix()).Scan(&p.ID)
		case err != nil:
			return err
		}
		p.Accuracy = (p.Accuracy + acc) / 2
		p.Streak++
		_, err = tx.ExecContext(ctx,
			`UPDATE progress SET accuracy = $1, streak = $2, last_practiced = $3 WHERE id = $4`,
			p.Accuracy, p.Streak, now.Unix(), p.ID)
		return err
	})
	return p, errors.Wrap(err, "upsert progress")
}

func (s *Store) ProgressRows(ctx context.Context, userID int64) ([]api.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chapter_id, accuracy, streak, last_practiced FROM progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Progress
	for rows.Next() {
		p := api.Progress{UserID: userID}
		var last int64
		if err := rows.Scan(&p.ID, &p.ChapterID, &p.Accuracy, &p.Streak, &last); err != nil {
			return nil, err
		}
		p.LastPracticed = time.Unix(last, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) RecordAttempt(ctx context.Context, userID int64, in api.AttemptIn, correct bool, now time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_mcq_attempts (user_id, chapter_id, mcq_id, selected_answer, is_correct, attempted_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		userID, in.ChapterID, in.MCQID, in.SelectedAnswer, correct, now.Unix()).Scan(&id)
	return id, errors.Wrap(err, "record attempt")
}

func (s *Store) AttemptCount(ctx context.Context, userID, chapterID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_mcq_attempts WHERE user_id = $1 AND chapter_id = $2`,
		userID, chapterID).Scan(&n)
	return n, err
}

func (s *Store) ResetCount(ctx context.Context, userID, chapterID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT reset_count FROM user_reset_logs WHERE user_id = $1 AND chapter_id = $2`,
		userID, chapterID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// ResetAnswers deletes the user's recorded answers for chapterID and counts
// the reset. It fails with ErrQuotaExhausted once max resets were used.
func (s *Store) ResetAnswers(ctx context.Context, userID, chapterID int64, max int) (int, error) {
	var n int
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT reset_count FROM user_reset_logs WHERE user_id = $1 AND chapter_id = $2`,
			userID, chapterID).Scan(&n)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if n >= max {
			return ErrQuotaExhausted
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_mcq_attempts WHERE user_id = $1 AND chapter_id = $2`, userID, chapterID); err != nil {
			return err
		}
		n++
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_reset_logs (user_id, chapter_id, reset_count) VALUES ($1,$2,$3)
			 ON CONFLICT (user_id, chapter_id) DO UPDATE SET reset_count = excluded.reset_count`,
			userID, chapterID, n)
		return err
	})
	return n, err
}
