package middleware

import "context"

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// AdminSubjectKey is the context key for the authenticated admin subject
	AdminSubjectKey contextKey = "admin_subject"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetAdminSubjectFromContext retrieves the authenticated admin subject from context
func GetAdminSubjectFromContext(ctx context.Context) string {
	if val := ctx.Value(AdminSubjectKey); val != nil {
		if sub, ok := val.(string); ok {
			return sub
		}
	}
	return ""
}

// WithAdminSubject adds the authenticated admin subject to the context
func WithAdminSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, AdminSubjectKey, sub)
}
