package membership

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
	Warn(format string, args ...any)
}

// Identity holds the attributes of a server-validated caller identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// Notifier delivers lifecycle email. Calls are fire-and-forget from the
// core's perspective: failures are logged, never surfaced to the caller.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, user *User, token string) error
	SendApplicationReceived(ctx context.Context, user *User) error
}

type noopNotifier struct{}

func (noopNotifier) SendVerificationEmail(context.Context, *User, string) error { return nil }
func (noopNotifier) SendApplicationReceived(context.Context, *User) error       { return nil }

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MEMBERSHIP "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
