package ctxutil

import (
	"context"

	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
)

type callerKey struct{}

func WithCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// GetCaller returns the zero Caller, which is never Valid, when none is attached.
func GetCaller(ctx context.Context) auth.Caller {
	if ctx == nil {
		return auth.Caller{}
	}
	if c, ok := ctx.Value(callerKey{}).(auth.Caller); ok {
		return c
	}
	return auth.Caller{}
}
