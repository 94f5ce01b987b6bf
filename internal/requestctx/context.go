package requestctx

import (
	"context"
	"errors"
)

// Key for request-scoped values in context
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	actorIDKey   contextKey = "actorID"
)

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// ErrNoActorIDInContext is returned when no actor ID is found in context
var ErrNoActorIDInContext = errors.New("no actor ID found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

// WithActorID records the authenticated sales user performing the request.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorIDFromContext extracts the acting sales user ID from the context
func ActorIDFromContext(ctx context.Context) (string, error) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	if !ok || actorID == "" {
		return "", ErrNoActorIDInContext
	}
	return actorID, nil
}
