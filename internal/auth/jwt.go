package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type JWTCustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token whose subject is the employee uid.
func GenerateToken(secret string, emp *models.Employee) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		Name:  emp.Name,
		Email: emp.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emp.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTVerifier is the IdentityVerifier backed by locally issued tokens.
type JWTVerifier struct {
	Secret string
}

func (v JWTVerifier) Verify(_ context.Context, bearer string) (Identity, error) {
	token, err := jwt.ParseWithClaims(bearer, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(v.Secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.Unauthorized("Token tidak valid atau kedaluwarsa")
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || claims.Subject == "" {
		return Identity{}, apperr.Unauthorized("Token tidak dapat dibaca")
	}
	return Identity{UID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
