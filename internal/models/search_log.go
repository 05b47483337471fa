package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchLog records one dispatched meal query of a browser session
type SearchLog struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index:idx_search_logs_session_created,priority:1" json:"session_id"`
	Criterion string    `gorm:"size:20;not null" json:"criterion"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	Results   int       `gorm:"not null;default:0" json:"results"`
	CreatedAt time.Time `gorm:"index:idx_search_logs_session_created,priority:2" json:"created_at"`
}
