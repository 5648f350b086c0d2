package devapi

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

const dailySize = 10

// POST /revision/progress/update {chapter_id, correct_answers, total_questions}
//
// chapter_id 0 is the daily set.
func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	var in api.ProgressUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.TotalQuestions < 0 || in.CorrectAnswers < 0 || in.CorrectAnswers > in.TotalQuestions {
		writeDetail(w, http.StatusBadRequest, "correct_answers must be between 0 and total_questions")
		return
	}
	p, err := s.store.UpsertProgress(r.Context(), uid, in, s.opts.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("update progress")
		writeDetail(w, http.StatusInternalServerError, "update progress")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /revision/progress/stats
func (s *Server) progressStats(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	rows, err := s.store.ProgressRows(r.Context(), uid)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Aggregate(rows))
}

// Aggregate folds per-chapter rows into the stats view: mean accuracy
// (truncated), chapters touched, quizzes taken (sum of streaks) and the
// best streak. The daily row counts as a quiz but not as a chapter.
func Aggregate(rows []api.Progress) api.Stats {
	var st api.Stats
	if len(rows) == 0 {
		return st
	}
	sum := 0.0
	for _, p := range rows {
		sum += p.Accuracy
		st.TotalQuizzes += p.Streak
		if p.Streak > st.Streak {
			st.Streak = p.Streak
		}
		if p.ChapterID != 0 {
			st.CompletedChapters++
		}
	}
	st.Accuracy = int(sum / float64(len(rows)))
	return st
}

// GET /revision/daily
func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	acc, err := s.store.UserByID(r.Context(), uid)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	out, err := s.store.DailyMCQs(r.Context(), acc.ClassID, dailySize)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /revision/attempts {chapter_id, mcq_id, selected_answer}
func (s *Server) recordAttempt(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	var in api.AttemptIn
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json")
		return
	}
	m, err := s.store.MCQ(r.Context(), in.MCQID)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "MCQ not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if in.ChapterID == 0 {
		in.ChapterID = m.ChapterID
	}
	correct := strings.EqualFold(strings.TrimSpace(in.SelectedAnswer), m.Correct)
	id, err := s.store.RecordAttempt(r.Context(), uid, in, correct, s.opts.Now())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.Attempt{ID: id, IsCorrect: correct})
}

func (s *Server) status(chapterID int64, used int) api.ResetStatus {
	remaining := s.opts.MaxResets - used
	if remaining < 0 {
		remaining = 0
	}
	return api.ResetStatus{
		ChapterID:       chapterID,
		ResetCount:      used,
		RemainingResets: remaining,
		MaxResets:       s.opts.MaxResets,
	}
}

// GET /revision/reset/{chapterID}
func (s *Server) resetStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	chapterID, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	n, err := s.store.ResetCount(r.Context(), uid, chapterID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.status(chapterID, n))
}

// POST /revision/reset/{chapterID}
func (s *Server) resetAnswers(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUser(r)
	chapterID, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	n, err := s.store.ResetAnswers(r.Context(), uid, chapterID, s.opts.MaxResets)
	if errors.Is(err, ErrQuotaExhausted) {
		writeDetail(w, http.StatusForbidden, "Reset limit reached for this chapter")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.status(chapterID, n))
}
