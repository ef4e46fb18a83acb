package models

import "context"

// SystemActor is the actor recorded for scheduled and command-line runs.
const SystemActor = "system:scheduler"

type provenanceContextKey struct{}

// Provenance carries who triggered a change and from where, so the ledger
// can stamp every entry without threading these through every call.
type Provenance struct {
	ActorId   string // acting user id
	IpAddress string // request origin address
	UserAgent string // client signature
}

// WithProvenance attaches request provenance to a context.
func WithProvenance(ctx context.Context, p Provenance) context.Context {
	return context.WithValue(ctx, provenanceContextKey{}, p)
}

// GetProvenance retrieves request provenance from context. Without one the
// system actor is returned.
func GetProvenance(ctx context.Context) Provenance {
	if p, ok := ctx.Value(provenanceContextKey{}).(Provenance); ok && p.ActorId != "" {
		return p
	}
	return Provenance{ActorId: SystemActor}
}
