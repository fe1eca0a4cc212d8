package middleware

import (
	"context"

	"github.com/storiqateam/stq-orders/internal/acl"
)

type contextKey string

const ctxCaller contextKey = "caller"

// WithCaller injects the resolved caller identity into the context.
func WithCaller(ctx context.Context, caller acl.Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCaller, caller)
}

// CallerFromContext returns the caller resolved by the identity middleware.
// The zero caller means the request carried no identity headers.
func CallerFromContext(ctx context.Context) acl.Caller {
	if ctx == nil {
		return acl.Caller{}
	}
	if v, ok := ctx.Value(ctxCaller).(acl.Caller); ok {
		return v
	}
	return acl.Caller{}
}
