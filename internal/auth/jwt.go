// Package auth reads and writes the session tokens issued by the identity
// provider. The server verifies them; the client only decodes its own.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the viewer fields on top of the registered claims. The
// subject is the viewer id.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	DisplayName   string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

func (c *Claims) viewer() *models.Viewer {
	return &models.Viewer{
		ID:            c.Subject,
		Email:         c.Email,
		DisplayName:   c.DisplayName,
		EmailVerified: c.EmailVerified,
	}
}

// GenerateToken signs an HS256 session token for v.
func GenerateToken(v models.Viewer, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   v.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email:         v.Email,
		DisplayName:   v.DisplayName,
		EmailVerified: v.EmailVerified,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString and returns the viewer it describes.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*models.Viewer, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims.viewer(), nil
}

// ViewerFromToken decodes tokenString without checking its signature. The
// client uses it to learn who it is logged in as; the server never does.
func ViewerFromToken(tokenString string) (*models.Viewer, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims.viewer(), nil
}
