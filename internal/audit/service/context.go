package service

import "context"

type contextKey string

const (
	requestIPKey contextKey = "audit.request_ip"
	userAgentKey contextKey = "audit.user_agent"
)

// WithRequestInfo attaches the caller's address and user agent so Record
// can stamp them onto entries.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	if ip != "" {
		ctx = context.WithValue(ctx, requestIPKey, ip)
	}
	if userAgent != "" {
		ctx = context.WithValue(ctx, userAgentKey, userAgent)
	}
	return ctx
}

func RequestIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIPKey).(string)
	return v
}

func UserAgentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}
