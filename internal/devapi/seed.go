package devapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-revise/internal/db"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

const (
	SeedEmail    = "test@example.com"
	SeedPassword = "password123"
)

type seedChapter struct {
	title      string
	mcqs       []api.MCQ
	flashcards []api.Flashcard
}

var class10Maths = []seedChapter{
	{
		title: "Real Numbers",
		mcqs: []api.MCQ{
			mcq("Which is a rational number?", "√2", "π", "0.333...", "√3", "C"),
			mcq("Product of non-zero rational and irrational is:", "always rational", "always irrational", "rational or irrational", "one", "B"),
			mcq("HCF of 96 and 404 is:", "4", "2", "12", "8", "A"),
			mcq("The decimal expansion of 17/8 is:", "terminating", "non-terminating repeating", "non-terminating non-repeating", "none of these", "A"),
			mcq("LCM of 6 and 20 is:", "30", "60", "120", "12", "B"),
		},
		flashcards: []api.Flashcard{
			card("What is a rational number?", "A number expressed as p/q where q is not 0."),
			card("What is Euclid's Division Lemma?", "a = bq + r, 0 <= r < b"),
			card("Fundamental Theorem of Arithmetic", "Every composite number is a product of primes, unique up to order."),
			card("HCF and LCM of two numbers a, b", "HCF(a, b) × LCM(a, b) = a × b"),
			card("When does p/q have a terminating decimal?", "When the prime factorisation of q is of the form 2^n 5^m."),
		},
	},
	{
		title: "Polynomials",
		mcqs: []api.MCQ{
			mcq("Degree of 5x³ - 2x + 7 is:", "1", "2", "3", "5", "C"),
			mcq("A quadratic polynomial has at most how many zeroes?", "1", "2", "3", "4", "B"),
		},
	},
	{title: "Pair of Linear Equations"},
	{title: "Quadratic Equations"},
	{title: "Arithmetic Progressions"},
}

// Seed loads the starter content and a verified demo account when the
// database is empty. cost is the bcrypt cost for the demo password.
func Seed(ctx context.Context, h *sql.DB, cost int) error {
	var n int
	if err := h.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n); err != nil {
		return errors.Wrap(err, "count classes")
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), cost)
	if err != nil {
		return errors.Wrap(err, "hash seed password")
	}
	return db.WithTx(ctx, h, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, created_at, verified, user_type) VALUES ($1,$2,$3,$4,'student')`,
			SeedEmail, string(hash), time.Now().Unix(), true); err != nil {
			return errors.Wrap(err, "seed user")
		}
		for grade := 6; grade <= 12; grade++ {
			classID, err := insertID(ctx, tx, `INSERT INTO classes (name) VALUES ($1) RETURNING id`,
				fmt.Sprintf("Class %d", grade))
			if err != nil {
				return err
			}
			subjects := []string{"Mathematics", "Science"}
			if grade >= 11 {
				subjects = []string{"Physics", "Chemistry", "Mathematics"}
			}
			for _, name := range subjects {
				subjectID, err := insertID(ctx, tx, `INSERT INTO subjects (class_id, name) VALUES ($1,$2) RETURNING id`,
					classID, name)
				if err != nil {
					return err
				}
				chapters := []seedChapter{{title: "Introduction to " + name}}
				if grade == 10 && name == "Mathematics" {
					chapters = class10Maths
				}
				if err := seedChapters(ctx, tx, subjectID, chapters); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func seedChapters(ctx context.Context, tx *sql.Tx, subjectID int64, chapters []seedChapter) error {
	for _, ch := range chapters {
		chapterID, err := insertID(ctx, tx, `INSERT INTO chapters (subject_id, title) VALUES ($1,$2) RETURNING id`,
			subjectID, ch.title)
		if err != nil {
			return err
		}
		for _, m := range ch.mcqs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO mcqs (chapter_id, question, option_a, option_b, option_c, option_d, correct)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				chapterID, m.Question, m.OptionA, m.OptionB, m.OptionC, m.OptionD, m.Correct); err != nil {
				return errors.Wrap(err, "seed mcq")
			}
		}
		for _, f := range ch.flashcards {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO flashcards (chapter_id, question, answer) VALUES ($1,$2,$3)`,
				chapterID, f.Question, f.Answer); err != nil {
				return errors.Wrap(err, "seed flashcard")
			}
		}
	}
	return nil
}

func insertID(ctx context.Context, tx *sql.Tx, q string, args ...any) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "seed: %s", q)
	}
	return id, nil
}

func mcq(q, a, b, c, d, correct string) api.MCQ {
	return api.MCQ{Question: q, OptionA: a, OptionB: b, OptionC: c, OptionD: d, Correct: correct}
}

func card(q, a string) api.Flashcard { return api.Flashcard{Question: q, Answer: a} }
