// Package auth turns bearer tokens into principals. Tokens are issued by the
// school's identity service; this package only signs them in tests and tools.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the actor identity the journal
// service authorizes against.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"uid"`
	Role        string `json:"role"`
	CounselorID string `json:"cid,omitempty"`
}

func GenerateToken(p models.Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:      p.ID,
		Role:        string(p.Role),
		CounselorID: p.CounselorID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// PrincipalFromToken verifies an HS256 token and returns the principal it
// carries. Expired tokens yield common.ErrTokenExpired, everything else that
// fails verification yields common.ErrInvalidToken.
func PrincipalFromToken(tokenString string, secretKey []byte) (*models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, errors.Join(common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return nil, common.ErrInvalidToken
	}

	p := &models.Principal{ID: claims.UserID, Role: role}
	if role == models.RoleCounselor {
		p.CounselorID = claims.CounselorID
	}

	return p, nil
}
