package admin

import (
	"errors"
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateMenuRequest struct {
	BranchID    uint   `json:"branch_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=255"`
	Price       int64  `json:"price" validate:"gt=0"`
	Threshold   int    `json:"threshold" validate:"gte=0"`
	IsAvailable *bool  `json:"is_available"`
}

type UpdateMenuRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	Threshold   *int    `json:"threshold" validate:"omitempty,gte=0"`
	IsAvailable *bool   `json:"is_available"`
}

// GET /api/menus?branch_id=&available=true
func ListMenusHandler(db *gorm.DB) fiber.Handler {
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

		q := db.WithContext(c.UserContext()).Model(&models.Menu{})
		if branchID != nil {
			q = q.Where("branch_id = ?", *branchID)
		}
		if c.QueryBool("available") {
			q = q.Where("is_available = ?", true)
		}
		var menus []models.Menu
		if err := q.Order("branch_id ASC").Order("name ASC").Find(&menus).Error; err != nil {
			return err
		}
		return response.OK(c, "Daftar menu", menus)
	}
}

// POST /api/menus
func CreateMenuHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		var n int64
		if err := tx.Model(&models.Branch{}).Where("id = ?", body.BranchID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound(msgBranchNotFound)
		}

		menu := models.Menu{
			BranchID:    body.BranchID,
			Name:        strings.TrimSpace(body.Name),
			Description: body.Description,
			Price:       body.Price,
			Threshold:   body.Threshold,
			IsAvailable: true,
		}
		if body.IsAvailable != nil {
			menu.IsAvailable = *body.IsAvailable
		}
		if err := tx.Create(&menu).Error; err != nil {
			return err
		}
		return response.Created(c, "Menu dibuat", menu)
	}
}

// PUT /api/menus/:id
func UpdateMenuHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := request.ParamUint(c, "id")
		if err != nil {
			return err
		}
		var body UpdateMenuRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		var menu models.Menu
		if err := tx.First(&menu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Menu tidak ditemukan")
			}
			return err
		}

		updates := map[string]any{}
		if body.Name != nil {
			updates["name"] = strings.TrimSpace(*body.Name)
		}
		if body.Description != nil {
			updates["description"] = *body.Description
		}
		if body.Price != nil {
			updates["price"] = *body.Price
		}
		if body.Threshold != nil {
			updates["threshold"] = *body.Threshold
		}
		if body.IsAvailable != nil {
			updates["is_available"] = *body.IsAvailable
		}
		if len(updates) > 0 {
			if err := tx.Model(&menu).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.First(&menu, id).Error; err != nil {
				return err
			}
		}
		return response.OK(c, "Menu diperbarui", menu)
	}
}
