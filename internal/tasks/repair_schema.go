package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/tavares/hospstock/internal/tenant"
)

// RepairSchemaTask reconciles one unit database with the expected
// schema, creating missing tables and columns.
type RepairSchemaTask struct {
	UnitID string `json:"unit_id"`
}

// Config returns the queue configuration for schema repair tasks.
func (t RepairSchemaTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "repair_schema",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RepairSchemaProcessor creates a processor function for
// RepairSchemaTask. The processor needs the tenant manager to reach
// the unit's database.
func RepairSchemaProcessor(manager *tenant.Manager) backlite.QueueProcessor[RepairSchemaTask] {
	return func(ctx context.Context, task RepairSchemaTask) error {
		if manager == nil {
			return fmt.Errorf("tenant manager not configured")
		}
		if err := manager.EnsureSchema(ctx, task.UnitID); err != nil {
			return fmt.Errorf("repair schema for unit %s: %w", task.UnitID, err)
		}
		return nil
	}
}

// NewRepairSchemaQueue creates a backlite queue for schema repair
// tasks.
func NewRepairSchemaQueue(manager *tenant.Manager) backlite.Queue {
	return backlite.NewQueue(RepairSchemaProcessor(manager))
}
