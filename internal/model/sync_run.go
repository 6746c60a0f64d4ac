package model

import "time"

const SyncRunTableName = "github_sync_runs"

// SyncRun 一次仓库同步的执行记录
type SyncRun struct {
	BaseModel
	RunID        string     `gorm:"column:run_id;size:36;not null;uniqueIndex" json:"run_id"`
	UserID       int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	CredentialID *int64     `gorm:"column:credential_id;index" json:"credential_id"`
	Trigger      string     `gorm:"size:20;not null" json:"trigger"` // manual/schedule
	Status       string     `gorm:"size:20;not null;index" json:"status"`
	Fetched      int        `gorm:"not null;default:0" json:"fetched"`
	Inserted     int        `gorm:"not null;default:0" json:"inserted"`
	Updated      int        `gorm:"not null;default:0" json:"updated"`
	Message      *string    `gorm:"type:text" json:"message"`
	FinishedAt   *time.Time `json:"finished_at"`
}

func (SyncRun) TableName() string {
	return SyncRunTableName
}
