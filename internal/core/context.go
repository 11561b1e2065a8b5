package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress  contextKey = "client_ip"
	ctxKeyUserAgent  contextKey = "client_ua"
	ctxKeyUploaderID contextKey = "uploader_id"
)

// ContextWithIPAddress adds the client IP to context for upload records.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds User-Agent to context for analysis logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithUploaderID adds the caller-supplied uploader id to context.
func ContextWithUploaderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyUploaderID, id)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// UploaderFromContext returns the uploader id, falling back to the client
// IP and then to "anonymous".
func UploaderFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUploaderID).(string); ok && v != "" {
		return v
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		return ip
	}
	return "anonymous"
}
