package repository

import (
	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// CreatedEventRepository is the idempotency ledger: which source emails have
// already produced a calendar event.
type CreatedEventRepository interface {
	FindByKey(userID, idempotencyKey string) (*meetingdomain.CreatedEventRecord, error)
	Record(record *meetingdomain.CreatedEventRecord) error
}

// BatchRunRepository persists pipeline run history.
type BatchRunRepository interface {
	Save(run *meetingdomain.BatchRun) error
	FindByUserID(userID string, limit, offset int) ([]*meetingdomain.BatchRun, int64, error)
	FindByID(id string) (*meetingdomain.BatchRun, error)
}
