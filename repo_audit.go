package session

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditRecord is the persisted form of an AuditEvent.
type AuditRecord struct {
	bun.BaseModel `bun:"table:session_audit,alias:aud"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	EventType     string         `bun:"event_type,notnull" json:"event_type,omitempty"`
	ActorID       string         `bun:"actor_id" json:"actor_id,omitempty"`
	ActorType     string         `bun:"actor_type" json:"actor_type,omitempty"`
	Email         string         `bun:"email" json:"email,omitempty"`
	Reason        string         `bun:"reason" json:"reason,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	OccurredAt    time.Time      `bun:"occurred_at,notnull" json:"occurred_at,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// AuditRecords is a Bun-backed audit trail that doubles as an AuditSink.
type AuditRecords interface {
	repository.Repository[*AuditRecord]
	AuditSink
}

type auditRecords struct {
	repository.Repository[*AuditRecord]
	db *bun.DB
}

var (
	_ AuditRecords                        = (*auditRecords)(nil)
	_ repository.Repository[*AuditRecord] = (*auditRecords)(nil)
	_ AuditSink                           = (*auditRecords)(nil)
)

// NewAuditRepository returns the Bun-backed audit repository.
func NewAuditRepository(db *bun.DB) AuditRecords {
	repo := repository.NewRepository[*AuditRecord](db, repository.ModelHandlers[*AuditRecord]{
		NewRecord: func() *AuditRecord { return &AuditRecord{} },
		GetID: func(r *AuditRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *AuditRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &auditRecords{
		Repository: repo,
		db:         db,
	}
}

// Record implements AuditSink.
func (r *auditRecords) Record(ctx context.Context, event AuditEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	record := &AuditRecord{
		ID:         uuid.New(),
		EventType:  string(event.EventType),
		ActorID:    event.Actor.ID,
		ActorType:  event.Actor.Type,
		Email:      event.Email,
		Reason:     event.Reason,
		Metadata:   event.Metadata,
		OccurredAt: occurredAt,
	}

	_, err := r.Create(ctx, record)
	return err
}

// CreateAuditTable provisions the audit table, for embedded/sqlite setups
// that do not run external migrations.
func CreateAuditTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*AuditRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
