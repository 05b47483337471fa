package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/mealbrowser/internal/models"
)

// historyScanLimit bounds the rows read to build a de-duplicated list
const historyScanLimit = 50

// HistoryService stores the meal queries of each browser session
type HistoryService struct {
	db *gorm.DB
}

// Ensure HistoryService implements IHistoryService
var _ IHistoryService = (*HistoryService)(nil)

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record appends a query to the history
func (s *HistoryService) Record(ctx context.Context, entry *models.SearchLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// Recent returns up to limit of the newest distinct queries of a session
func (s *HistoryService) Recent(ctx context.Context, sessionID string, limit int) ([]models.SearchLog, error) {
	var rows []models.SearchLog
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(historyScanLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type key struct{ criterion, value string }
	seen := make(map[key]bool)
	result := make([]models.SearchLog, 0, limit)
	for _, row := range rows {
		k := key{row.Criterion, row.Value}
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, row)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}
