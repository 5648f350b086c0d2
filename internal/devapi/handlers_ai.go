package devapi

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// minPool is how many stored items make a chapter skip generation.
const minPool = 5

func (s *Server) limitDetail() string {
	return fmt.Sprintf("You've exceeded today's limit of %d AI requests. Please try again tomorrow!", s.opts.AIDailyLimit)
}

// POST /ai/generate-mcq/{chapterID}
//
// A chapter with a full pool is served from storage and costs nothing.
// Otherwise one request is counted against the caller's daily limit.
func (s *Server) generateMCQs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := currentUser(r)
	chapterID, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	existing, err := s.store.MCQs(ctx, chapterID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(existing) >= minPool {
		writeJSON(w, http.StatusOK, existing)
		return
	}
	day := s.today()
	used, err := s.store.Usage(ctx, uid, day)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if used >= s.opts.AIDailyLimit {
		writeDetail(w, http.StatusTooManyRequests, s.limitDetail())
		return
	}
	topic, err := s.store.Topic(ctx, chapterID)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Chapter not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	gen, err := s.opts.Generator.MCQs(ctx, topic)
	if err == nil {
		gen, err = s.store.SaveGeneratedMCQs(ctx, uid, chapterID, day, gen)
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("chapter", chapterID).Msg("generate mcqs")
		if len(existing) > 0 {
			writeJSON(w, http.StatusOK, existing)
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to generate MCQs")
		return
	}
	writeJSON(w, http.StatusOK, gen)
}

// POST /ai/generate-flashcard/{chapterID}
func (s *Server) generateFlashcards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, _ := currentUser(r)
	chapterID, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	existing, err := s.store.Flashcards(ctx, chapterID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(existing) >= minPool {
		writeJSON(w, http.StatusOK, existing)
		return
	}
	day := s.today()
	used, err := s.store.Usage(ctx, uid, day)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if used >= s.opts.AIDailyLimit {
		writeDetail(w, http.StatusTooManyRequests, s.limitDetail())
		return
	}
	topic, err := s.store.Topic(ctx, chapterID)
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Chapter not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	gen, err := s.opts.Generator.Flashcards(ctx, topic)
	if err == nil {
		gen, err = s.store.SaveGeneratedFlashcards(ctx, uid, chapterID, day, gen)
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("chapter", chapterID).Msg("generate flashcards")
		if len(existing) > 0 {
			writeJSON(w, http.StatusOK, existing)
			return
		}
		writeDetail(w, http.StatusInternalServerError, "Failed to generate Flashcards")
		return
	}
	writeJSON(w, http.StatusOK, gen)
}
