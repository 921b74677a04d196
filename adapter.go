package fieldchat

import "context"

// Adapter encodes a signature, demos and inputs into chat messages and decodes completions
// back into output fields. Implementations must be safe for concurrent use.
type Adapter interface {
	// Name identifies the encoding in logs, traces and MismatchError.
	Name() string
	// Format renders the full message list for one exchange.
	Format(ctx context.Context, sig *Signature, demos []Values, inputs Values) ([]ChatMessage, error)
	// Parse recovers output fields from one completion. A completion whose fields do not match
	// sig.OutputFields exactly yields a *MismatchError.
	Parse(sig *Signature, completion string) (ParsedFields, error)
}
