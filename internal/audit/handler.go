package audit

import (
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxPageSize = 200

// GET /api/audit-logs?entity_type=order&entity_id=...&branch_id=1&user_id=2&limit=50&offset=0
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.MustActor(c)
		if err != nil {
			return err
		}
		requested, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFilter(actor, requested)
		if err != nil {
			return err
		}

		dbq := db.Model(&models.AuditLog{})
		if branchID != nil {
			dbq = dbq.Where("branch_id = ?", *branchID)
		}
		userID, err := request.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		if userID != nil {
			dbq = dbq.Where("user_id = ?", *userID)
		}
		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			dbq = dbq.Where("entity_id = ?", v)
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > maxPageSize {
			limit = maxPageSize
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
			return err
		}
		return response.OK(c, "Daftar log audit", logs)
	}
}
