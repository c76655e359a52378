package shared

import (
	"context"
	"net/http"
	"strconv"
)

// Actor identifies the workflow actor behind a request. The surrounding
// application authenticates users; this core only records who acted.
type Actor struct {
	UserID   int64
	BranchID int64
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}

// ActorFromHeader reads actor identity forwarded by the authenticating layer.
func ActorFromHeader(r *http.Request) Actor {
	userID, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	branchID, _ := strconv.ParseInt(r.Header.Get("X-Actor-Branch"), 10, 64)
	return Actor{UserID: userID, BranchID: branchID}
}
