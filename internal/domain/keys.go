package domain

import "context"

type CtxKey string

const (
	KeyUserID    CtxKey = "UserID"
	KeyUserEmail CtxKey = "Email"
	KeyUserRole  CtxKey = "Role"
)

// Actor is the authenticated caller, if any.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// WithActor stores the caller identity on ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	ctx = context.WithValue(ctx, KeyUserID, a.UserID)
	ctx = context.WithValue(ctx, KeyUserEmail, a.Email)
	return context.WithValue(ctx, KeyUserRole, a.Role)
}

// ActorFromContext reads the caller identity; missing values are empty.
func ActorFromContext(ctx context.Context) Actor {
	id, _ := ctx.Value(KeyUserID).(string)
	email, _ := ctx.Value(KeyUserEmail).(string)
	role, _ := ctx.Value(KeyUserRole).(string)
	return Actor{UserID: id, Email: email, Role: role}
}

const (
	KeyRequestID CtxKey = "RequestID"
	KeyClientIP  CtxKey = "ClientIP"
)

// WithRequestMeta stores the request id and client address on ctx.
func WithRequestMeta(ctx context.Context, requestID, clientIP string) context.Context {
	ctx = context.WithValue(ctx, KeyRequestID, requestID)
	return context.WithValue(ctx, KeyClientIP, clientIP)
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(KeyRequestID).(string)
	return v
}

func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(KeyClientIP).(string)
	return v
}
