package auth

import "context"

// EmailFromContext retrieves the authenticated account email from the
// request context. Returns the email and true if present.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
