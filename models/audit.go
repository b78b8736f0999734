package models

import "time"

// AuditEntry records who did what, for the admin audit log.
type AuditEntry struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	UserEmail string    `json:"user_email,omitempty" bson:"user_email,omitempty"`
	Action    string    `json:"action" bson:"action"`
	Details   string    `json:"details" bson:"details"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
