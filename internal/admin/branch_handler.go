// Package admin serves the branch and menu catalogue.
package admin

import (
	"errors"
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const msgBranchNotFound = "Cabang tidak ditemukan"

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

func branchResponse(b models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

type CreateBranchRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address string  `json:"address" validate:"max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
}

// ----------------------------------------
// BRANCH CRUD
// ----------------------------------------

// POST /api/branches
func CreateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return apperr.BadRequest("Nama cabang tidak boleh kosong")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.WithContext(c.UserContext()).Create(&branch).Error; err != nil {
			return branchWriteError(err)
		}
		return response.Created(c, "Cabang dibuat", branchResponse(branch))
	}
}

// GET /api/branches
func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := db.WithContext(c.UserContext()).Order("name ASC").Find(&branches).Error; err != nil {
			return err
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, branchResponse(b))
		}
		return response.OK(c, "Daftar cabang", res)
	}
}

// GET /api/branches/:id
func GetBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}
		return response.OK(c, "Detail cabang", branchResponse(*branch))
	}
}

// PUT /api/branches/:id
func UpdateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}

		var body UpdateBranchRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.BadRequest("Nama cabang tidak boleh kosong")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.WithContext(c.UserContext()).Save(branch).Error; err != nil {
			return branchWriteError(err)
		}
		return response.OK(c, "Cabang diperbarui", branchResponse(*branch))
	}
}

// DELETE /api/branches/:id
// A branch that still has employees or orders cannot be removed.
func DeleteBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branch, err := findBranch(c, db)
		if err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		for _, model := range []any{&models.Employee{}, &models.Order{}} {
			var n int64
			if err := tx.Model(model).Where("branch_id = ?", branch.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperr.Conflict("Cabang masih digunakan")
			}
		}

		if err := tx.Delete(&models.Branch{}, branch.ID).Error; err != nil {
			return err
		}
		return response.OK(c, "Cabang dihapus", nil)
	}
}

func findBranch(c *fiber.Ctx, db *gorm.DB) (*models.Branch, error) {
	id, err := request.ParamUint(c, "id")
	if err != nil {
		return nil, err
	}
	var branch models.Branch
	err = db.WithContext(c.UserContext()).First(&branch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgBranchNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func branchWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Nama cabang sudah digunakan")
	}
	return err
}
