package models

import "time"

// Lead is the primary business record being synchronized.
type Lead struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	FirstName   string `gorm:"size:120" json:"first_name"`
	LastName    string `gorm:"size:120" json:"last_name"`
	Company     string `gorm:"size:255" json:"company"`
	Email       string `gorm:"size:255" json:"email"`
	Phone       string `gorm:"size:40" json:"phone"`
	Source      string `gorm:"size:60" json:"source"`
	Status      string `gorm:"size:60" json:"status"`
	// ExternalRef is the identifier assigned by the external system after a
	// successful sync. Empty until the first successful push.
	ExternalRef string    `gorm:"size:60;index" json:"external_ref"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for GORM.
func (Lead) TableName() string {
	return "leads"
}

// SyncErrorLog is one durable record of a failed synchronization attempt.
// Rows are append-only; retention is handled outside this service.
type SyncErrorLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Integration string    `gorm:"size:60" json:"integration"`
	RecordID    string    `gorm:"size:255;index" json:"record_id"`
	Message     string    `gorm:"size:1024" json:"message"`
	StatusCode  int       `json:"status_code"`
	RawResponse string    `gorm:"type:text" json:"raw_response"`
	ErrorKind   string    `gorm:"size:40" json:"error_kind"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName sets the table name for GORM.
func (SyncErrorLog) TableName() string {
	return "sync_error_logs"
}
