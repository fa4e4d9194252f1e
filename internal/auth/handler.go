package auth

import (
	"errors"
	"strings"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/config"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
	"github.com/PramesRay/pos-service/internal/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterOwnerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateEmployeeRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"required"`
	BranchID *uint       `json:"branch_id"`
}

// -------------------------------------------------
// POST /api/auth/register-owner
// Only allowed while no owner exists.
// -------------------------------------------------
func RegisterOwnerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterOwnerRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		var count int64
		if err := db.Model(&models.Employee{}).Where("role = ?", models.RoleOwner).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Forbidden("Pemilik sudah terdaftar")
		}

		emp, err := createEmployee(db, CreateEmployeeRequest{
			Name:     body.Name,
			Email:    body.Email,
			Password: body.Password,
			Role:     models.RoleOwner,
		})
		if err != nil {
			return err
		}
		return response.Created(c, "Pemilik berhasil didaftarkan", emp)
	}
}

// -------------------------------------------------
// POST /api/auth/login
// -------------------------------------------------
func LoginHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		email := strings.TrimSpace(strings.ToLower(body.Email))

		var emp models.Employee
		if err := db.Where("email = ?", email).First(&emp).Error; err != nil {
			return apperr.Unauthorized("Email atau kata sandi salah")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Unauthorized("Email atau kata sandi salah")
		}

		token, err := GenerateToken(cfg.JWTSecret, &emp)
		if err != nil {
			return err
		}

		return response.OK(c, "Login berhasil", fiber.Map{
			"token":    token,
			"employee": emp,
		})
	}
}

// -------------------------------------------------
// GET /api/auth/me
// -------------------------------------------------
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := MustActor(c)
		if err != nil {
			return err
		}
		var emp models.Employee
		if err := db.Preload("Branch").First(&emp, actor.EmployeeID).Error; err != nil {
			return apperr.NotFound("Karyawan tidak ditemukan")
		}
		return response.OK(c, "Profil karyawan", emp)
	}
}

// -------------------------------------------------
// POST /api/employees
// -------------------------------------------------
func CreateEmployeeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}
		if !body.Role.Valid() {
			return apperr.BadRequest("Role tidak valid")
		}
		if branchBound(body.Role) && body.BranchID == nil {
			return apperr.BadRequest("Karyawan dapur dan kasir wajib memiliki cabang")
		}
		if body.BranchID != nil {
			var branch models.Branch
			if err := db.First(&branch, *body.BranchID).Error; err != nil {
				return apperr.NotFound("Cabang tidak ditemukan")
			}
		}

		emp, err := createEmployee(db, body)
		if err != nil {
			return err
		}
		return response.Created(c, "Karyawan berhasil dibuat", emp)
	}
}

// -------------------------------------------------
// GET /api/employees?branch_id=1
// -------------------------------------------------
func ListEmployeesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.Model(&models.Employee{}).Preload("Branch").Order("name ASC")
		branchID, err := request.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		if branchID != nil {
			q = q.Where("branch_id = ?", *branchID)
		}
		var list []models.Employee
		if err := q.Find(&list).Error; err != nil {
			return err
		}
		return response.OK(c, "Daftar karyawan", list)
	}
}

func branchBound(r models.Role) bool {
	return r == models.RoleKitchen || r == models.RoleCashier
}

func createEmployee(db *gorm.DB, body CreateEmployeeRequest) (*models.Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	emp := models.Employee{
		UID:          uuid.NewString(),
		Name:         strings.TrimSpace(body.Name),
		Email:        strings.TrimSpace(strings.ToLower(body.Email)),
		PasswordHash: string(hash),
		Role:         body.Role,
		BranchID:     body.BranchID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Type: models.UserTypeEmployee}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		emp.UserID = user.ID
		return tx.Create(&emp).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict("Email sudah terdaftar")
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
