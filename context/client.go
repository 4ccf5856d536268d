package context

import (
	"context"
)

type contextkey string

const (
	clientKey contextkey = "client"
)

// ContextSetClient binds the browser's client id to ctx.
func ContextSetClient(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientKey, clientID)
}

// ContextGetClient returns the client id, or "" when none was set.
func ContextGetClient(ctx context.Context) string {
	id, _ := ctx.Value(clientKey).(string)
	return id
}
