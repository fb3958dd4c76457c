package models

import (
	"time"

	"gorm.io/gorm"
)

// Node is a DePIN compute operator registration.
type Node struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	OperatorID       string     `gorm:"type:varchar(36);index" json:"operator_id"`
	NodeAddress      string     `gorm:"uniqueIndex;not null" json:"node_address"`
	StakeAmount      float64    `gorm:"default:0" json:"stake_amount"`
	UptimeScore      float64    `gorm:"default:0" json:"uptime_score"`
	PerformanceScore float64    `gorm:"default:0" json:"performance_score"`
	TotalInferences  int        `gorm:"default:0" json:"total_inferences"`
	TokensEarned     float64    `gorm:"default:0" json:"tokens_earned"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	LastHeartbeat    *time.Time `json:"last_heartbeat"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Operator User `gorm:"foreignKey:OperatorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (n *Node) BeforeCreate(tx *gorm.DB) error {
	newID(&n.ID)
	return nil
}
