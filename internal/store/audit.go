package store

import (
	"context"
	"strings"
	"time"

	"pazaauto.id/internal/auth"
)

// SystemActor is recorded when no authenticated user is in the context.
const SystemActor = "system"

// Audit holds the bookkeeping columns every entity table carries.
type Audit struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
}

// AuditFields exposes the embedded columns to Table.
func (a *Audit) AuditFields() *Audit { return a }

type audited interface {
	AuditFields() *Audit
}

// Actor returns the authenticated username in ctx, or SystemActor.
func Actor(ctx context.Context) string {
	if name, ok := auth.UsernameFromContext(ctx); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return SystemActor
}

func (d *DB) stampCreate(ctx context.Context, e any) {
	a, ok := e.(audited)
	if !ok {
		return
	}
	f := a.AuditFields()
	now := d.now().UTC()
	actor := Actor(ctx)
	f.CreatedAt, f.UpdatedAt = now, now
	f.CreatedBy, f.UpdatedBy = actor, actor
}

func (d *DB) stampUpdate(ctx context.Context, e any) {
	a, ok := e.(audited)
	if !ok {
		return
	}
	f := a.AuditFields()
	f.UpdatedAt = d.now().UTC()
	f.UpdatedBy = Actor(ctx)
}
