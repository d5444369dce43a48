package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/accounts-api/internal/auth"
	"go.uber.org/zap"
)

// Claims are the claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// JWTConfig holds configuration for JWTProvider
type JWTConfig struct {
	Secret string
	Issuer string // empty skips the iss check
}

// JWTProvider resolves sessions from HS256 tokens signed with a shared
// secret.
type JWTProvider struct {
	secret []byte
	issuer string
	parser *jwt.Parser
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTProvider creates a JWT session provider.
func NewJWTProvider(cfg JWTConfig, logger *zap.Logger) (*JWTProvider, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	p := &JWTProvider{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		logger: logger,
		now:    time.Now,
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return p.now() }),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	p.parser = jwt.NewParser(opts...)

	return p, nil
}

// Session implements Provider. Invalid, expired or missing tokens yield no
// session; they are not provider failures.
func (p *JWTProvider) Session(ctx context.Context, header http.Header) (*auth.Session, error) {
	tokenString := extractToken(header)
	if tokenString == "" {
		return nil, nil
	}

	claims := &Claims{}
	_, err := p.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		p.logger.Debug("token rejected", zap.Error(err))
		return nil, nil
	}

	if claims.Subject == "" {
		p.logger.Debug("token rejected", zap.String("reason", "missing sub"))
		return nil, nil
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	session := &auth.Session{
		Principal: auth.Principal{
			ID:    claims.Subject,
			Role:  auth.ParseRole(claims.Role),
			Email: claims.Email,
			Name:  claims.Name,
		},
		Raw: raw,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}

// Issue signs a session token for principal valid for ttl.
func (p *JWTProvider) Issue(principal auth.Principal, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  principal.Role.String(),
		Email: principal.Email,
		Name:  principal.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
