package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tabstat/internal/core"
)

// uploaderHeader lets clients name themselves in upload records.
const uploaderHeader = "X-Uploader-ID"

const maxUploaderIDLen = 128

// WithRequestMetadata adds the client IP, User-Agent and uploader id to
// context for upload records.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	if id := strings.TrimSpace(r.Header.Get(uploaderHeader)); id != "" {
		if len(id) > maxUploaderIDLen {
			id = id[:maxUploaderIDLen]
		}
		ctx = core.ContextWithUploaderID(ctx, id)
	}
	return ctx
}
