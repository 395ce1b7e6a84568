package ports

import (
	"context"

	"github.com/mikey/fraud-detector/internal/core"
)

// EmailFilter screens whole messages, either as a long-running mail filter
// or as a one-shot command
type EmailFilter interface {
	// ProcessEmail screens a parsed message
	ProcessEmail(ctx context.Context, email *core.Email) (*core.MessageVerdict, error)

	// Start starts the filter
	Start() error

	// Stop stops the filter
	Stop() error
}
