package devapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	authmw "github.com/mind-engage/mindengage-revise/internal/auth/middleware"
	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, api.ErrorBody{Detail: detail})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// currentUser reads the id JWTMiddleware put in the context.
func currentUser(r *http.Request) (int64, bool) { return authmw.UserID(r.Context()) }
