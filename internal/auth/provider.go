// Package auth signs staff in and out with bcrypt password hashes and
// HS256 JWTs. Signed-out tokens are revoked by their jti until they expire.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
)

// ChangeKind names an auth state transition.
type ChangeKind string

const (
	SignedUp  ChangeKind = "SIGNED_UP"
	SignedIn  ChangeKind = "SIGNED_IN"
	SignedOut ChangeKind = "SIGNED_OUT"
)

// Change is delivered to OnAuthChange subscribers.
type Change struct {
	Kind ChangeKind    `json:"kind"`
	User *account.User `json:"user"`
}

// Session is what a successful sign-in or sign-up returns.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *account.User `json:"user"`
}

// Claims are the JWT claims issued for an account.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Provider implements sign-up, sign-in, sign-out and token lookup.
type Provider struct {
	accounts postgres.AccountRepository
	revoked  postgres.RevokedTokenRepository
	secret   []byte
	issuer   string
	ttl      time.Duration
	cost     int
	log      *log.Logger

	mu     sync.RWMutex
	subs   map[int]func(Change)
	nextID int
}

// NewProvider creates a Provider over the account repositories.
func NewProvider(repos postgres.Repositories, cfg *config.Config) *Provider {
	ttl := cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{
		accounts: repos.Accounts(),
		revoked:  repos.RevokedTokens(),
		secret:   []byte(cfg.Auth.JWTSecret),
		issuer:   cfg.Auth.Issuer,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		log:      logger.Service("auth"),
		subs:     make(map[int]func(Change)),
	}
}

// SetHashCost overrides the bcrypt cost; tests lower it.
func (p *Provider) SetHashCost(cost int) {
	p.cost = cost
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = account.NormalizeEmail(email)
	if err := account.ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &account.Account{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
	}
	if err := p.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	session, err := p.issue(acc.Public())
	if err != nil {
		return nil, err
	}
	p.log.Info("Account signed up", "account_id", acc.ID)
	p.notify(Change{Kind: SignedUp, User: session.User})
	return session, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acc, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		p.log.Warn("Sign-in for unknown email")
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		p.log.Warn("Sign-in with wrong password", "account_id", acc.ID)
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	session, err := p.issue(acc.Public())
	if err != nil {
		return nil, err
	}
	p.log.Info("Account signed in", "account_id", acc.ID)
	p.notify(Change{Kind: SignedIn, User: session.User})
	return session, nil
}

// SignOut revokes token. Signing out an already revoked token is a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}

	if err := p.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	user := &account.User{Email: claims.Email, DisplayName: claims.Name}
	if id, err := uuid.Parse(claims.Subject); err == nil {
		user.ID = id
	}
	p.log.Info("Account signed out", "account_id", claims.Subject)
	p.notify(Change{Kind: SignedOut, User: user})
	return nil
}

// CurrentUser resolves a bearer token to its account.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*account.User, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("token revoked: %w", common.ErrUnauthorized)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", common.ErrUnauthorized)
	}
	acc, err := p.accounts.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("account no longer exists: %w", common.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return acc.Public(), nil
}

// OnAuthChange registers fn and returns a function that removes it.
func (p *Provider) OnAuthChange(fn func(Change)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) notify(change Change) {
	p.mu.RLock()
	subs := make([]func(Change), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

func (p *Provider) issue(user *account.User) (*Session, error) {
	now := time.Now()
	expires := now.Add(p.ttl)

	claims := Claims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expires, User: user}, nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", common.ErrUnauthorized)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		p.log.Debug("Token rejected", "error", err)
		return nil, fmt.Errorf("invalid token: %w", common.ErrUnauthorized)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token without id: %w", common.ErrUnauthorized)
	}
	return claims, nil
}
