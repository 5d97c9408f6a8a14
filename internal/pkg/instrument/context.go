package instrument

import "context"

type contextKey int

const correlationIDKey contextKey = iota

// SetCorrelationID stores the correlation ID in the context.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey, cid)
}

// GetCorrelationID returns the correlation ID from the context, or "" when absent.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	v := ctx.Value(correlationIDKey)
	if v == nil {
		return ""
	}

	cid, ok := v.(string)
	if !ok {
		return "[invalid_chain_id]"
	}

	return cid
}
