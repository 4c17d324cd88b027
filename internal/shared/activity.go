package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sellapp/sellapp/internal/platform/db"
)

// Activity represents a row stored in activity_logs.
type Activity struct {
	ActorID   int64
	CompanyID *int64
	Action    string
	Entity    string
	EntityID  string
	Meta      map[string]any
	At        time.Time
}

// ActivityLogger writes records into activity_logs.
type ActivityLogger struct {
	db db.DBTX
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(conn db.DBTX) *ActivityLogger {
	return &ActivityLogger{db: conn}
}

// Record persists the entry.
func (l *ActivityLogger) Record(ctx context.Context, entry Activity) error {
	if l == nil || l.db == nil {
		return errors.New("activity logger not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("activity requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err = l.db.Exec(ctx, `INSERT INTO activity_logs (actor_id, company_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.ActorID, entry.CompanyID, entry.Action, entry.Entity, entry.EntityID, metaJSON, at)
	return err
}
