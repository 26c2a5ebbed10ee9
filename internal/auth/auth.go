package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vytor/flashplay/internal/errors"
)

// LocalUserID owns everything when authentication is disabled.
const LocalUserID = "local"

// Principal is the authenticated caller. Token is the raw bearer token,
// forwarded to the backend on the caller's behalf.
type Principal struct {
	UserID string
	Token  string
}

func Local() Principal {
	return Principal{UserID: LocalUserID}
}

type ctxKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the caller attached by the auth middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// JWTAuth verifies HS256 bearer tokens carrying a user_id claim.
type JWTAuth struct {
	secret []byte
	now    func() time.Time
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret), now: time.Now}
}

// GenerateToken signs a token for userID valid for ttl.
func (j *JWTAuth) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Verify parses a raw token. Failures are UNAUTHORIZED AppErrors.
func (j *JWTAuth) Verify(tokenStr string) (Principal, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, errors.NewUnauthorizedError("token has expired")
		}
		return Principal{}, errors.NewUnauthorizedError("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, errors.NewUnauthorizedError("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return Principal{}, errors.NewUnauthorizedError("token has no user id")
	}
	return Principal{UserID: userID, Token: tokenStr}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.NewUnauthorizedError("missing or malformed bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}
