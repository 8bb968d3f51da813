// Package net holds what every transport shares: the reply envelope and the
// request id carried on a context
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequestID stores id under the key the chi RequestID middleware uses, so
// the CLI and the bot correlate logs the same way HTTP requests do
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID is the id on ctx, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
