// Package correlationid carries a request correlation id through contexts.
package correlationid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP and message header holding the correlation id.
const Header = "X-Correlation-ID"

type ctxKey struct{}

// New returns a fresh correlation id.
func New() string {
	return uuid.NewString()
}

func NewContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, correlationID)
}

func FromContext(ctx context.Context) (string, bool) {
	correlationID, ok := ctx.Value(ctxKey{}).(string)
	return correlationID, ok && correlationID != ""
}
