package membership

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// DefaultActorLocalsKey is where the session middleware stores the
// server-validated caller id.
const DefaultActorLocalsKey = "membership_actor_id"

// ActorFromRouter extracts the authenticated caller id placed in router
// locals by the session layer. The id is server-validated upstream; a
// missing or malformed value resolves to an unauthenticated caller.
func ActorFromRouter(ctx router.Context, key string) (uuid.UUID, error) {
	if key == "" {
		key = DefaultActorLocalsKey
	}

	raw := ctx.Locals(key)
	if raw == nil {
		return uuid.Nil, ErrAuthenticationRequired
	}

	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, ErrAuthenticationRequired.WithMetadata(map[string]any{
				"reason": "actor id is not a uuid",
			})
		}
		return id, nil
	default:
		return uuid.Nil, ErrAuthenticationRequired.WithMetadata(map[string]any{
			"reason": "unexpected actor id type",
		})
	}
}
