package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"martcli/internal/domain"
	"martcli/internal/logger"
	"martcli/internal/store"
	"martcli/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// RequireRole fails with store.ErrUnauthorized unless ctx carries an actor
// with the given role.
func RequireRole(ctx context.Context, role string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != role {
		return domain.Actor{}, fmt.Errorf("%s role required: %w", role, store.ErrUnauthorized)
	}
	return actor, nil
}

type Session struct {
	Token     string
	Actor     domain.Actor
	ExpiresAt time.Time
}

type Authenticator struct {
	managers  store.ManagerStore
	customers store.CustomerStore
	secret    []byte
	tokenTTL  time.Duration
	hashCost  int
	now       func() time.Time
	log       *zap.Logger
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// NewAuthenticator signs sessions with secret. An empty secret gets a random
// per-process key, so tokens never outlive the process.
func NewAuthenticator(managers store.ManagerStore, customers store.CustomerStore, secret string, tokenTTL time.Duration, log *zap.Logger) (*Authenticator, error) {
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}

	return &Authenticator{
		managers:  managers,
		customers: customers,
		secret:    key,
		tokenTTL:  tokenTTL,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
		log:       logger.OrNop(log),
	}, nil
}

func (a *Authenticator) ManagerExists(ctx context.Context) (bool, error) {
	managers, err := a.managers.ListManagers(ctx)
	if err != nil {
		return false, err
	}
	return len(managers) > 0, nil
}

// RegisterManager stores the single manager account. The pin must be exactly
// four digits and is kept as a bcrypt hash.
func (a *Authenticator) RegisterManager(ctx context.Context, name string, pin string) error {
	exists, err := a.ManagerExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrManagerExists
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("manager name is required: %w", store.ErrInvalidInput)
	}
	if !isFourDigitPIN(pin) {
		return fmt.Errorf("pin must be 4 digits: %w", store.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), a.hashCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := a.managers.CreateManager(ctx, domain.Manager{Name: name, PIN: string(hashed)}); err != nil {
		return err
	}

	a.log.Info("manager registered", zap.String("manager", name))
	return nil
}

// LoginManager matches name and pin against the stored manager record and
// opens a signed session.
func (a *Authenticator) LoginManager(ctx context.Context, name string, pin string) (Session, error) {
	managers, err := a.managers.ListManagers(ctx)
	if err != nil {
		return Session{}, err
	}
	if len(managers) == 0 {
		return Session{}, fmt.Errorf("no manager registered: %w", store.ErrNotFound)
	}

	for _, m := range managers {
		if m.Name == name && verifyPIN(m.PIN, pin) {
			return a.issue(domain.Actor{Name: m.Name, Role: domain.RoleManager})
		}
	}

	a.log.Warn("manager login rejected", zap.String("manager", name))
	return Session{}, fmt.Errorf("invalid credentials: %w", store.ErrUnauthorized)
}

// ParseToken validates a session token and returns its actor. Expired or
// tampered tokens fail with store.ErrUnauthorized.
func (a *Authenticator) ParseToken(token string) (domain.Actor, error) {
	claims := &sessionClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("session expired or invalid: %w", store.ErrUnauthorized)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, fmt.Errorf("invalid session subject: %w", store.ErrUnauthorized)
	}
	return domain.Actor{Name: sub, Role: claims.Role}, nil
}

func (a *Authenticator) CustomerExists(ctx context.Context, name string) (bool, error) {
	customers, err := a.customers.ListCustomers(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range customers {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (a *Authenticator) RegisterCustomer(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("customer name is required: %w", store.ErrInvalidInput)
	}
	exists, err := a.CustomerExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAlreadyRegistered
	}
	if err := a.customers.CreateCustomer(ctx, domain.Customer{Name: name}); err != nil {
		return err
	}

	a.log.Info("customer registered", zap.String("customer", name))
	return nil
}

// LoginCustomer only checks that the name is registered.
func (a *Authenticator) LoginCustomer(ctx context.Context, name string) (domain.Actor, error) {
	exists, err := a.CustomerExists(ctx, name)
	if err != nil {
		return domain.Actor{}, err
	}
	if !exists {
		return domain.Actor{}, fmt.Errorf("customer %q: %w", name, store.ErrNotFound)
	}
	return domain.Actor{Name: name, Role: domain.RoleCustomer}, nil
}

func (a *Authenticator) issue(actor domain.Actor) (Session, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.tokenTTL)
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        xid.New("sess"),
			Subject:   actor.Name,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "martcli",
		},
		Role: actor.Role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Actor: actor, ExpiresAt: expiresAt}, nil
}

// verifyPIN accepts bcrypt hashes and, for rows written before hashing, an
// exact plaintext match.
func verifyPIN(stored string, input string) bool {
	if stored == "" || input == "" {
		return false
	}
	if !isPINHash(stored) {
		return stored == input
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func isPINHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

func isFourDigitPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
