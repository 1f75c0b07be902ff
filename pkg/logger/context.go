package logger

import "context"

// ContextWithRequestID stamps the request ID used by contextual log calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// ContextWithUserID stamps the authenticated user ID used by contextual log calls.
func ContextWithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func contextFields(ctx context.Context) []any {
	fields := make([]any, 0, 4)
	if v := ctx.Value(RequestIDKey); v != nil {
		fields = append(fields, string(RequestIDKey), v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		fields = append(fields, string(UserIDKey), v)
	}
	return fields
}
