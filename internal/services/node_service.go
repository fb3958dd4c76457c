package services

import (
	"context"
	"errors"
	"time"

	"ajatus_server/internal/database"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type RegisterNodeRequest struct {
	NodeAddress string  `json:"node_address" binding:"required,max=255"`
	StakeAmount float64 `json:"stake_amount" binding:"gte=0"`
}

// NodeService keeps the registry of DePIN compute nodes.
type NodeService struct {
	db *gorm.DB
}

func NewNodeService(db *gorm.DB) *NodeService {
	return &NodeService{db: db}
}

func (s *NodeService) Register(ctx context.Context, operatorID string, req RegisterNodeRequest) (*models.Node, error) {
	node := &models.Node{
		OperatorID:  operatorID,
		NodeAddress: req.NodeAddress,
		StakeAmount: req.StakeAmount,
		IsActive:    true,
	}
	err := database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", operatorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.New404Error("Operator not found")
		}
		if err := tx.Model(&models.Node{}).Where("node_address = ?", req.NodeAddress).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New409Error("Node address already registered")
		}
		return tx.Create(node).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("nodeID", node.ID).Str("operatorID", operatorID).Msg("Node registered")
	return node, nil
}

func (s *NodeService) List(ctx context.Context, activeOnly bool) ([]models.Node, error) {
	var nodes []models.Node
	q := s.db.WithContext(ctx).Order("created_at asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

// Heartbeat marks the operator's node alive at now.
func (s *NodeService) Heartbeat(ctx context.Context, operatorID, nodeID string, now time.Time) (*models.Node, error) {
	var node models.Node
	err := database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND operator_id = ?", nodeID, operatorID).First(&node).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New404Error("Node not found")
			}
			return err
		}
		beat := now.UTC()
		node.LastHeartbeat = &beat
		node.IsActive = true
		return tx.Model(&node).Updates(map[string]interface{}{
			"last_heartbeat": beat,
			"is_active":      true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// SweepInactive deactivates nodes that have not sent a heartbeat within
// timeout. Nodes that never sent one are measured from registration.
func (s *NodeService) SweepInactive(ctx context.Context, now time.Time, timeout time.Duration) (int64, error) {
	cutoff := now.UTC().Add(-timeout)
	result := s.db.WithContext(ctx).Model(&models.Node{}).
		Where("is_active = ?", true).
		Where("(last_heartbeat IS NULL AND created_at < ?) OR last_heartbeat < ?", cutoff, cutoff).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Info().Int64("deactivated", result.RowsAffected).Msg("Inactive nodes swept")
	}
	return result.RowsAffected, nil
}
