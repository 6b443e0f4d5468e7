package storage

import "gashook/internal/model"

// Storage defines a sink for fee decision records.
type Storage interface {
	PutDecisionBatch(decisions []model.DecisionRecord) error
}
