package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lattice-saas/lattice/internal/domain/access"
)

// AccessLog is one persisted permission-check outcome.
type AccessLog struct {
	ID           string            `gorm:"type:uuid;primaryKey"`
	UserID       string            `gorm:"index;not null"`
	TenantID     string            `gorm:"index"`
	ResourceType string            `gorm:"not null"`
	Action       string            `gorm:"not null"`
	ResourceID   string            ``
	Allowed      bool              `gorm:"not null"`
	Source       string            `gorm:"not null"`
	CheckedAt    time.Time         `gorm:"index;not null"`
	Metadata     datatypes.JSONMap ``
	CreatedAt    time.Time         ``
}

func (AccessLog) TableName() string {
	return "access_logs"
}

func toModel(e access.Entry) AccessLog {
	var meta datatypes.JSONMap
	if len(e.Metadata) > 0 {
		meta = make(datatypes.JSONMap, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
	}
	return AccessLog{
		ID:           uuid.NewString(),
		UserID:       e.UserID,
		TenantID:     e.TenantID,
		ResourceType: e.ResourceType,
		Action:       e.Action.String(),
		ResourceID:   e.ResourceID,
		Allowed:      e.Allowed,
		Source:       string(e.Source),
		CheckedAt:    e.CheckedAt,
		Metadata:     meta,
	}
}
