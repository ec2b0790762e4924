package db

import "time"

// Audit actions.
const (
	ActionDownload     = "download.served"
	ActionDenied       = "download.denied"
	ActionMissing      = "download.missing"
	ActionAuthFailed   = "auth.failed"
	ActionAuthLocked   = "auth.locked"
	ActionPageRendered = "page.rendered"
)

// AuditEntry is one row of the audit log. ID and CreatedAt are filled by
// the store.
type AuditEntry struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Actor     string    `json:"actor"`
	RemoteIP  string    `json:"remote_ip"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Status    int       `json:"status"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginAttempt struct {
	Key         string     `json:"key"`
	Failed      int        `json:"failed"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
