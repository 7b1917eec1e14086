package auth

import (
	"context"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the authenticated identity mutating payroll records. Session
// issuance lives in the out-of-scope auth subsystem; the payroll core only
// consumes the verified claims.
type Actor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ctxKey string

const actorKey ctxKey = "actor"

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*Actor)
	return actor, ok
}

// ParseToken verifies an HS256 access token and extracts the actor claims.
func ParseToken(tokenString, secret string) (*Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	actor := &Actor{}
	if sub, err := claims.GetSubject(); err == nil {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			actor.ID = id
		}
	}
	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}
	if email, ok := claims["email"].(string); ok {
		actor.Email = email
	}

	if actor.ID == 0 {
		return nil, jwt.ErrTokenInvalidSubject
	}

	return actor, nil
}
