package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claims")
)

// DownloadClaims grants one lead access to one gated asset
type DownloadClaims struct {
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`
	Asset  string `json:"asset"`
	jwt.RegisteredClaims
}

// DownloadTokenManager signs and validates download tokens
type DownloadTokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadTokenManager creates a manager whose tokens live ttlMinutes
func NewDownloadTokenManager(secret string, issuer string, ttlMinutes int) *DownloadTokenManager {
	return &DownloadTokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		now:    time.Now,
	}
}

// GenerateToken creates a token for leadID to download asset
func (tm *DownloadTokenManager) GenerateToken(leadID, email, asset string) (string, error) {
	if leadID == "" || asset == "" {
		return "", ErrInvalidClaim
	}

	now := tm.now()
	claims := DownloadClaims{
		LeadID: leadID,
		Email:  email,
		Asset:  asset,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.issuer,
			Subject:   leadID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a token and returns its claims
func (tm *DownloadTokenManager) ValidateToken(tokenString string) (*DownloadClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DownloadClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*DownloadClaims)
	if !ok || !token.Valid || claims.LeadID == "" || claims.Asset == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// GetExpirationTime returns the token lifetime
func (tm *DownloadTokenManager) GetExpirationTime() time.Duration {
	return tm.ttl
}
