package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// VendorIDKey is the context key for vendor identifiers.
	VendorIDKey contextKey = "vendor_id"

	// CaseNumberKey is the context key for case numbers.
	CaseNumberKey contextKey = "case_number"

	// SignalIDKey is the context key for signal identifiers.
	SignalIDKey contextKey = "signal_id"

	// ActorKey is the context key for the acting user or system.
	ActorKey contextKey = "actor"
)

// WithVendorID adds a vendor ID to the context.
func WithVendorID(ctx context.Context, vendorID string) context.Context {
	return context.WithValue(ctx, VendorIDKey, vendorID)
}

// GetVendorID retrieves the vendor ID from the context.
func GetVendorID(ctx context.Context) string {
	if v, ok := ctx.Value(VendorIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCaseNumber adds a case number to the context.
func WithCaseNumber(ctx context.Context, caseNumber string) context.Context {
	return context.WithValue(ctx, CaseNumberKey, caseNumber)
}

// GetCaseNumber retrieves the case number from the context.
func GetCaseNumber(ctx context.Context) string {
	if v, ok := ctx.Value(CaseNumberKey).(string); ok {
		return v
	}
	return ""
}

// WithSignalID adds a signal ID to the context.
func WithSignalID(ctx context.Context, signalID string) context.Context {
	return context.WithValue(ctx, SignalIDKey, signalID)
}

// GetSignalID retrieves the signal ID from the context.
func GetSignalID(ctx context.Context) string {
	if v, ok := ctx.Value(SignalIDKey).(string); ok {
		return v
	}
	return ""
}

// WithActor adds the acting user or system to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the actor from the context.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey).(string); ok {
		return v
	}
	return ""
}
