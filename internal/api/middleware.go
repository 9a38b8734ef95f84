package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// MemberHeader carries the acting member's ID. Authentication happens upstream.
const MemberHeader = "X-Member-ID"

const tracerName = "github.com/raidboard/raidboard-server/internal/api"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const memberIDKey ctxKey = "memberID"

// GetMemberID returns the acting member ID from context.
// Returns 401 error if the request named no member.
func GetMemberID(ctx context.Context) (string, error) {
	memberID, ok := ctx.Value(memberIDKey).(string)
	if !ok || memberID == "" {
		return "", huma.Error401Unauthorized(MemberHeader + " header is required")
	}
	return memberID, nil
}

// optionalMemberID returns the acting member ID, or "" when none was sent.
func optionalMemberID(ctx context.Context) string {
	memberID, _ := ctx.Value(memberIDKey).(string)
	return memberID
}

// memberContext stores the X-Member-ID header in the request context.
func (s *Server) memberContext(ctx huma.Context, next func(huma.Context)) {
	if memberID := strings.TrimSpace(ctx.Header(MemberHeader)); memberID != "" {
		ctx = huma.WithValue(ctx, memberIDKey, memberID)
	}
	next(ctx)
}

// rateLimit rejects requests over the per-member budget with 429. Requests
// without a member are keyed by client address.
func (s *Server) rateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.limiter == nil {
		next(ctx)
		return
	}

	key := optionalMemberID(ctx.Context())
	if key == "" {
		key = "addr:" + clientHost(ctx.RemoteAddr())
	}

	if !s.limiter.Allow(key) {
		s.logger.WarnContext(ctx.Context(), "rate limit exceeded",
			"key", key,
			"path", ctx.URL().Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests", domainerrors.ErrRateLimited)
		return
	}
	next(ctx)
}

// traceRequests starts a server span per request, continuing any inbound trace context.
func traceRequests(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path)))
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// logRequests writes one structured line per request.
func logRequests(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
