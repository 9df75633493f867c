// Package audit records who changed what, with before/after JSON snapshots.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"lab-inventory/internal/logger"
	"lab-inventory/internal/models"

	"go.uber.org/zap"
)

// Entity types used in audit entries.
const (
	EntitySupplier      = "supplier"
	EntitySupply        = "supply"
	EntityPurchaseOrder = "purchase_order"
	EntityUser          = "user"
)

type Writer interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores one audit entry. Snapshots that are nil or fail to marshal
// are stored as the JSON literal null.
func WriteLog(ctx context.Context, w Writer, opts LogOptions) error {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: truncate(opts.Description, maxDescription),
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := w.CreateAuditLog(ctx, &entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

const maxDescription = 255

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Recorder writes audit entries on behalf of handlers. A failed write is
// logged and never fails the request that triggered it.
type Recorder struct {
	w   Writer
	log *zap.Logger
}

func NewRecorder(w Writer, log *zap.Logger) *Recorder {
	return &Recorder{w: w, log: logger.Named(log, "audit")}
}

func (r *Recorder) Record(ctx context.Context, opts LogOptions) {
	if err := WriteLog(ctx, r.w, opts); err != nil {
		r.log.Warn("audit log not written",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.String("action", string(opts.Action)),
			zap.Error(err),
		)
	}
}
