package repository

import (
	"errors"
	"time"

	meetingdomain "meetsync-backend/internal/meeting/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// createdEventRepository implements CreatedEventRepository using GORM
type createdEventRepository struct {
	db *gorm.DB
}

// NewCreatedEventRepository creates a new instance of createdEventRepository
func NewCreatedEventRepository(db *gorm.DB) CreatedEventRepository {
	return &createdEventRepository{
		db: db,
	}
}

func (r *createdEventRepository) FindByKey(userID, idempotencyKey string) (*meetingdomain.CreatedEventRecord, error) {
	var record meetingdomain.CreatedEventRecord
	err := r.db.Where("user_id = ? AND idempotency_key = ?", userID, idempotencyKey).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *createdEventRepository) Record(record *meetingdomain.CreatedEventRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()
	return r.db.Create(record).Error
}
