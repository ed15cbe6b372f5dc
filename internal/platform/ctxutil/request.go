package ctxutil

import "context"

type requestKey struct{}

// RequestIDs are the correlation ids stamped on every inbound request.
type RequestIDs struct {
	RequestID string
	TraceID   string
}

func WithRequestIDs(ctx context.Context, ids RequestIDs) context.Context {
	return context.WithValue(Default(ctx), requestKey{}, ids)
}

// RequestIDsFrom returns the ids attached by the request middleware, if any.
func RequestIDsFrom(ctx context.Context) (RequestIDs, bool) {
	if ctx == nil {
		return RequestIDs{}, false
	}
	ids, ok := ctx.Value(requestKey{}).(RequestIDs)
	return ids, ok
}

// LogFields renders the ids as key/value pairs for the structured logger.
func (ids RequestIDs) LogFields() []interface{} {
	out := make([]interface{}, 0, 4)
	if ids.RequestID != "" {
		out = append(out, "request_id", ids.RequestID)
	}
	if ids.TraceID != "" && ids.TraceID != ids.RequestID {
		out = append(out, "trace_id", ids.TraceID)
	}
	return out
}
