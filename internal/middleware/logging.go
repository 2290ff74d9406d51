package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LoggingInterceptor logs one line per RPC. Caller mistakes (bad input,
// missing funds, unknown ids) log at Info or Warn; everything else that
// fails logs at Error. A nil logger uses slog.Default.
//
// When installed outside the auth interceptors the account is not known
// yet, so the line carries the chi request ID for correlation instead.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"request_id", chimw.GetReqID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if id := GetAccountID(ctx); id != "" {
				attrs = append(attrs, "account_id", id)
			}

			if err == nil {
				logger.Info("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String())
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				attrs = append(attrs, "error", connectErr.Message())
			} else {
				attrs = append(attrs, "error", err)
			}
			logger.Log(ctx, levelFor(code), "RPC error", attrs...)
			return resp, err
		}
	}
}

func levelFor(code connect.Code) slog.Level {
	switch code {
	case connect.CodeNotFound, connect.CodeAlreadyExists, connect.CodeCanceled:
		return slog.LevelInfo
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition,
		connect.CodeUnauthenticated, connect.CodePermissionDenied:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
