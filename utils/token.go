package utils

import (
	"errors"
	"fmt"
	"time"

	"bitbucket.org/fabworks/mfg_backend/config"
	"github.com/golang-jwt/jwt/v5"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type JwtCustomClaim struct {
	UserId      int       `json:"uid"`
	WorkspaceId int       `json:"wid"`
	Kind        TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	return []byte(config.GetSettings().SecretKey)
}

// JwtGenerate mints the access/refresh token pair. The active workspace id is
// embedded so switch-workspace issues fresh tokens.
func JwtGenerate(userId int, workspaceId int) (access string, refresh string, err error) {
	s := config.GetSettings()
	now := time.Now()

	access, err = signToken(&JwtCustomClaim{
		UserId:      userId,
		WorkspaceId: workspaceId,
		Kind:        TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.AccessTokenExpireMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	if err != nil {
		return "", "", err
	}

	refresh, err = signToken(&JwtCustomClaim{
		UserId:      userId,
		WorkspaceId: workspaceId,
		Kind:        TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 0, s.RefreshTokenExpireDays)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func signToken(claims *JwtCustomClaim) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(jwtSecret())
}

func JwtValidate(token string) (*JwtCustomClaim, error) {
	parsed, err := jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
