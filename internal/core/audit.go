package core

import (
	"context"
	"log/slog"
	"time"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionExport       AuditAction = "export"
	ActionImport       AuditAction = "import"
	ActionImportDryRun AuditAction = "import_dry_run"
	ActionImportReject AuditAction = "import_rejected"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           int64         `json:"id,omitempty"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	UnitID       string        `json:"unitId"`
	ActorID      string        `json:"actorId,omitempty"`
	ActorName    string        `json:"actorName,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	Deleted      int64         `json:"deleted,omitempty"`
	Warnings     int           `json:"warnings,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	Unit         TranslationUnit
	Actor        Actor
	RowsAffected int
	Deleted      int64
	Warnings     int
	Reason       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction, deleted int64) AuditSeverity {
	switch action {
	case ActionImport:
		if deleted > 0 {
			return SeverityHigh
		}
		return SeverityMedium
	case ActionImportReject:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// logAudit records an audit entry. Audit failures are logged and never fail
// the operation being audited.
func (s *Service) logAudit(ctx context.Context, params AuditLogParams) {
	entry := AuditEntry{
		Action:       params.Action,
		Severity:     determineSeverity(params.Action, params.Deleted),
		UnitID:       params.Unit.ID.String(),
		ActorID:      params.Actor.ID,
		ActorName:    params.Actor.Name,
		IPAddress:    GetIPAddressFromContext(ctx),
		UserAgent:    GetUserAgentFromContext(ctx),
		RowsAffected: params.RowsAffected,
		Deleted:      params.Deleted,
		Warnings:     params.Warnings,
		Reason:       params.Reason,
		CreatedAt:    s.now(),
	}
	if err := s.store.RecordAudit(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			slog.String("action", string(entry.Action)),
			slog.String("unit_id", entry.UnitID),
			slog.String("error", err.Error()),
		)
	}
}
