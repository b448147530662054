package repository

import (
	"errors"

	meetingdomain "meetsync-backend/internal/meeting/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// batchRunRepository implements BatchRunRepository using GORM
type batchRunRepository struct {
	db *gorm.DB
}

// NewBatchRunRepository creates a new instance of batchRunRepository
func NewBatchRunRepository(db *gorm.DB) BatchRunRepository {
	return &batchRunRepository{
		db: db,
	}
}

func (r *batchRunRepository) Save(run *meetingdomain.BatchRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	return r.db.Create(run).Error
}

func (r *batchRunRepository) FindByUserID(userID string, limit, offset int) ([]*meetingdomain.BatchRun, int64, error) {
	var runs []*meetingdomain.BatchRun
	var total int64

	query := r.db.Model(&meetingdomain.BatchRun{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, total, err
}

func (r *batchRunRepository) FindByID(id string) (*meetingdomain.BatchRun, error) {
	var run meetingdomain.BatchRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
