package auth

import (
	"context"
	"errors"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"gorm.io/gorm"
)

// Identity is what the identity provider vouches for.
type Identity struct {
	UID   string
	Name  string
	Email string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, bearer string) (Identity, error)
}

type ProfileStore interface {
	ProfileByUID(ctx context.Context, uid string) (Actor, error)
}

// Actor is the authenticated employee a request acts on behalf of.
type Actor struct {
	UserID     uint
	EmployeeID uint
	Name       string
	Email      string
	Role       models.Role
	BranchID   *uint
}

// GormProfileStore resolves identities against the employees table.
type GormProfileStore struct {
	DB *gorm.DB
}

func (s GormProfileStore) ProfileByUID(ctx context.Context, uid string) (Actor, error) {
	var emp models.Employee
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, apperr.NotFound("Karyawan tidak ditemukan")
	}
	if err != nil {
		return Actor{}, err
	}
	return ActorOf(&emp), nil
}

func ActorOf(emp *models.Employee) Actor {
	return Actor{
		UserID:     emp.UserID,
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Email:      emp.Email,
		Role:       emp.Role,
		BranchID:   emp.BranchID,
	}
}
