package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/honeyfile/internal/auth"
)

type contextKey string

const (
	AccountIDKey contextKey = "account_id"
	UsernameKey  contextKey = "username"
)

// GetAccountID returns the authenticated account ID, or "" for anonymous
// requests.
func GetAccountID(ctx context.Context) string {
	accountID, _ := ctx.Value(AccountIDKey).(string)
	return accountID
}

// GetUsername returns the authenticated username, or "".
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// WithAccount returns a copy of ctx carrying the request identity.
func WithAccount(ctx context.Context, accountID, username string) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, accountID)
	return context.WithValue(ctx, UsernameKey, username)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func identify(jwtManager *auth.JWTManager, req connect.AnyRequest) (*auth.Claims, error) {
	token, err := bearerToken(req.Header().Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return jwtManager.Validate(token)
}

// RequireAuth rejects requests without a valid session token with
// CodeUnauthenticated and puts the caller's identity on the context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			claims, err := identify(jwtManager, req)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(WithAccount(ctx, claims.AccountID, claims.Username), req)
		}
	}
}

// OptionalAuth attaches the caller's identity when a valid token is sent.
// Missing or bad tokens pass through as anonymous; handlers that need an
// account check GetAccountID themselves.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if claims, err := identify(jwtManager, req); err == nil {
				ctx = WithAccount(ctx, claims.AccountID, claims.Username)
			}
			return next(ctx, req)
		}
	}
}
