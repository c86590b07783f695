// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"erp/config"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/service"
)

// accessClaims is the wire shape of an access token.
type accessClaims struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	CustomerID *uint  `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret []byte        // Secret key for signing access tokens.
	accessTTL    time.Duration // Time-to-live for access tokens.
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	ttl := time.Duration(0)
	if cfg.Auth != nil {
		ttl = cfg.Auth.AccessTokenTTL
	}
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		accessTTL:    ttl,
		now:          time.Now,
	}, nil
}

// IssueToken signs an HS256 access token for the user.
func (s *jwtService) IssueToken(user *entity.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessTTL)

	claims := accessClaims{
		Username:   user.Username,
		Role:       user.Role.String(),
		CustomerID: user.CustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign access token")
	}

	return signed, expiresAt, nil
}

// ValidateToken checks the signature, algorithm and expiry of the token and returns its claims.
// Every failure is reported as ErrAuthenticationFailed.
func (s *jwtService) ValidateToken(tokenString string) (*entity.Claims, error) {
	claims := new(accessClaims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.accessSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrAuthenticationFailed, err.Error())
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, errors.Wrap(domainerrors.ErrAuthenticationFailed, "invalid subject")
	}

	role, ok := entity.ParseRole(claims.Role)
	if !ok || claims.Username == "" {
		return nil, errors.Wrap(domainerrors.ErrAuthenticationFailed, "malformed claims")
	}

	return &entity.Claims{
		TokenID:    claims.ID,
		UserID:     uint(userID),
		Username:   claims.Username,
		Role:       role,
		CustomerID: claims.CustomerID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// AccessTokenTTL returns the configured duration for access tokens.
func (s *jwtService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}
