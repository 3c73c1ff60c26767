package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
)

// ContextWithClient records who started a request so import sessions can
// remember where they came from.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyClientIP, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// ClientFromContext returns the values stored by ContextWithClient.
func ClientFromContext(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ctxKeyClientIP).(string)
	userAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	return ip, userAgent
}
