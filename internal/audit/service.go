package audit

import (
	"encoding/json"
	"fmt"

	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    any
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog appends an audit entry using tx, so the entry commits or rolls
// back together with the change it describes.
func WriteLog(tx *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    fmt.Sprint(opts.EntityID),
		Action:      opts.Action,
		Description: truncate(opts.Description, 255),
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
