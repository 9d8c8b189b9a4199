package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is one key-value row of the planner's durable store
type SessionRecord struct {
	Key       string         `gorm:"column:session_key;primaryKey;type:varchar(255)" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TableName specifies the table name
func (SessionRecord) TableName() string {
	return "planner_sessions"
}
