package shared

import "context"

type principalContextKey struct{}

// Identity carries the authenticated caller as provided by the upstream
// gateway. The engine never mints or mutates one.
type Identity struct {
	UserID          int64
	Role            string
	CampusID        int64
	GrantedCampuses []int64
}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, principalContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(principalContextKey{}).(*Identity)
	return id
}
