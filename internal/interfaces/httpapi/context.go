package httpapi

import (
	"context"

	"github.com/matchpulse/match-sync/internal/domain/user"
)

type contextKey string

// operatorContextKey carries the verified operator identity for the manual
// sync trigger; no other route reads it.
const operatorContextKey contextKey = "sync_operator"

func withOperator(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, operatorContextKey, p)
}

func operatorFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(operatorContextKey).(user.Principal)
	return p, ok
}
