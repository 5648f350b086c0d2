package auth

import (
	"context"
	"strconv"
)

type subjectKey struct{}

// WithSubject stores the token subject, the user id as a decimal string.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

// UserID is Subject parsed as a user id. ok is false for anonymous requests
// and for subjects that are not numeric.
func UserID(ctx context.Context) (id int64, ok bool) {
	id, err := strconv.ParseInt(Subject(ctx), 10, 64)
	return id, err == nil && id > 0
}
