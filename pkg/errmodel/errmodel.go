package errmodel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Category values for compact errors.
const (
	CategoryValidation = "validation"
	CategoryExecution  = "execution"
	CategoryMiddleware = "middleware"
	CategorySystem     = "system"
)

// Error is the compact error payload attached to observer events and logs.
// It implements the error interface.
type Error struct {
	Category string         `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
	Causes   []Error        `json:"causes,omitempty"`
	TraceID  string         `json:"trace_id,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Compacter is implemented by domain errors that know their compact form.
type Compacter interface {
	Compact() *Error
}

// New constructs a new compact error.
func New(category, code, message string, ctx map[string]any, causes ...error) *Error {
	ce := &Error{Category: category, Code: code, Message: truncate(message, 512)}
	if len(ctx) > 0 {
		ce.Context = truncateContext(ctx)
	}
	for _, c := range causes {
		if c == nil {
			continue
		}
		ce.Causes = append(ce.Causes, *From(c))
	}
	return ce
}

// From converts any error into a compact Error. *Error values are returned
// as-is and Compacter implementations are asked for their own form.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	var cp Compacter
	if errors.As(err, &cp) {
		if out := cp.Compact(); out != nil {
			return out
		}
	}
	// Default to system/internal for unknown error types.
	return &Error{Category: CategorySystem, Code: "internal", Message: truncate(err.Error(), 512)}
}

// Convenience constructors.
func Validation(code, message string, ctx map[string]any) *Error {
	return New(CategoryValidation, code, message, ctx)
}

func Execution(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryExecution, code, message, ctx, cause)
}

func Middleware(code, message string, ctx map[string]any, cause error) *Error {
	return New(CategoryMiddleware, code, message, ctx, cause)
}

func System(code, message string, ctx map[string]any, cause error) *Error {
	if cause != nil {
		return New(CategorySystem, code, message, ctx, cause)
	}
	return New(CategorySystem, code, message, ctx)
}

// WithTrace returns a copy of the compact form of err carrying the trace id
// of the span active in ctx, if any.
func WithTrace(ctx context.Context, err error) *Error {
	ce := From(err)
	if ce == nil {
		return nil
	}
	out := *ce
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		out.TraceID = sc.TraceID().String()
	}
	return &out
}

// JSON renders the compact envelope { "error": ... }. Marshal failures fall
// back to a plain message.
func JSON(err error) string {
	ce := From(err)
	if ce == nil {
		return "null"
	}
	b, merr := json.Marshal(map[string]any{"error": ce})
	if merr != nil {
		return `{"error":{"category":"system","code":"internal","message":"unencodable error"}}`
	}
	return string(b)
}

// truncate trims a string to max characters.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// truncateContext trims long string values in the context map.
func truncateContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch t := v.(type) {
		case string:
			out[k] = truncate(t, 256)
		case int, int64, bool, float64:
			out[k] = t
		default:
			// Keep a bounded JSON preview of anything larger.
			b, err := json.Marshal(t)
			if err == nil && len(b) > 0 {
				out[k] = truncate(string(b), 256)
			} else {
				out[k] = t
			}
		}
	}
	return out
}

// IsCategory checks if err belongs to a specific category.
func IsCategory(err error, category string) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(ce.Category, category)
}
