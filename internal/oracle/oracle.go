// Package oracle talks to the hosted language model that judges purchases.
package oracle

import (
	"context"
	"fmt"
)

// Oracle turns a prompt into model text. Implementations must honour ctx.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TransportError means the model could not be reached or returned no usable
// reply. It says nothing about the content of a reply.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("oracle error %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("oracle unavailable: %v", e.Err)
	default:
		return "oracle unavailable: " + e.Message
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether repeating the call may succeed.
func (e *TransportError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Oracle.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
