package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type viewerKey struct{}

// Viewer is the identity resolved by the external identity provider for one request.
// The zero value is an anonymous viewer.
type Viewer struct {
	UserID uuid.UUID
	Token  string
}

func (v Viewer) Authenticated() bool { return v.UserID != uuid.Nil }

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// GetViewer returns the request viewer, anonymous when none was attached.
func GetViewer(ctx context.Context) Viewer {
	if ctx == nil {
		return Viewer{}
	}
	if v, ok := ctx.Value(viewerKey{}).(Viewer); ok {
		return v
	}
	return Viewer{}
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
