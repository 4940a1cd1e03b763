package clients

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// TokenKey is the context key for the session token (Authorization header)
	TokenKey contextKey = "session-token"

	// LanguageKey is the context key for the preferred language (Accept-Language header)
	LanguageKey contextKey = "language"
)

// WithToken adds a session token to the context.
// It is sent as a Bearer token on every request made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// GetToken retrieves the session token from context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok && token != ""
}

// WithLanguage sets the language server messages come back in
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LanguageKey, lang)
}

// GetLanguage retrieves the preferred language from context
func GetLanguage(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(LanguageKey).(string)
	return lang, ok && lang != ""
}
