package devapi

import (
	"net/http"
)

// GET /classes
func (s *Server) classes(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.Classes(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /subjects/{classID}
func (s *Server) subjects(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "classID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad class id")
		return
	}
	out, err := s.store.Subjects(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /chapters/{subjectID}
func (s *Server) chapters(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "subjectID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad subject id")
		return
	}
	out, err := s.store.Chapters(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /flashcards/{chapterID}
func (s *Server) flashcards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	out, err := s.store.Flashcards(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /mcqs/{chapterID}
func (s *Server) mcqs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "chapterID")
	if !ok {
		writeDetail(w, http.StatusBadRequest, "bad chapter id")
		return
	}
	out, err := s.store.MCQs(r.Context(), id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}
