package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Identity is the authenticated caller attached to a request
type Identity struct {
	Subject   string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IdentityProvider ties credentials, token issuance and revocation together
type IdentityProvider struct {
	jwt         *JWTService
	credentials CredentialStore
	blacklist   TokenBlacklist
	logger      *zap.Logger
}

// NewIdentityProvider creates an identity provider. A nil blacklist falls
// back to an in-memory one.
func NewIdentityProvider(jwt *JWTService, credentials CredentialStore, blacklist TokenBlacklist, logger *zap.Logger) *IdentityProvider {
	if blacklist == nil {
		blacklist = NewInMemoryTokenBlacklist()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityProvider{
		jwt:         jwt,
		credentials: credentials,
		blacklist:   blacklist,
		logger:      logger,
	}
}

// Login authenticates the operator and issues a token
func (p *IdentityProvider) Login(ctx context.Context, username, password string) (*IssuedToken, *User, error) {
	user, err := p.credentials.Authenticate(ctx, username, password)
	if err != nil {
		p.logger.Info("Login rejected", zap.String("username", username))
		return nil, nil, err
	}

	token, err := p.jwt.Issue(user.Username, user.Role)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("Login succeeded", zap.String("username", user.Username), zap.String("role", user.Role))
	return token, user, nil
}

// Verify validates a bearer token and rejects revoked ones
func (p *IdentityProvider) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return Identity{}, err
	}

	if claims.ID != "" {
		revoked, err := p.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Fail closed when the blacklist cannot be consulted
			p.logger.Warn("Token blacklist check failed", zap.Error(err))
			return Identity{}, ErrInvalidToken
		}
		if revoked {
			return Identity{}, ErrTokenBlacklisted
		}
	}

	identity := Identity{
		Subject: claims.Subject,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Revoke blacklists the identity's token for its remaining lifetime
func (p *IdentityProvider) Revoke(ctx context.Context, identity Identity) error {
	if identity.TokenID == "" {
		return nil
	}
	ttl := time.Until(identity.ExpiresAt)
	if err := p.blacklist.AddToBlacklist(ctx, identity.TokenID, ttl); err != nil {
		return err
	}
	p.logger.Info("Token revoked", zap.String("username", identity.Subject))
	return nil
}

// TokenExpiration returns the lifetime of issued tokens
func (p *IdentityProvider) TokenExpiration() time.Duration {
	return p.jwt.Expiration()
}
