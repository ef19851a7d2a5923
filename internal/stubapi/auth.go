package stubapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiendita/storefront/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// AuthService implements registration and login and issues HS256 bearer
// tokens.
type AuthService struct {
	store     *Store
	jwtSecret []byte
	tokenTTL  time.Duration
	cost      int
}

func NewAuthService(store *Store, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{store: store, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL, cost: bcrypt.DefaultCost}
}

// Register creates an account. The role defaults to client.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if reg.Role == "" {
		reg.Role = domain.RoleClient
	}
	if !reg.Role.Valid() {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.CreateAccount(ctx, domain.Identity{Name: reg.Name, Email: reg.Email, Role: reg.Role}, reg.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(identity)
}

// CreateAccount hashes password and stores the account. Seeding uses it
// directly.
func (s *AuthService) CreateAccount(ctx context.Context, identity domain.Identity, password string) (domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.Identity{}, err
	}
	identity.Email = strings.TrimSpace(identity.Email)
	return s.store.CreateUser(ctx, identity, string(hash))
}

// Login checks the password and returns a fresh token. An unknown email and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	identity, hash, err := s.store.FindByEmail(ctx, strings.TrimSpace(creds.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(identity)
}

func (s *AuthService) issue(identity domain.Identity) (*domain.AuthResult, error) {
	token, err := s.generateToken(identity)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: token, Identity: identity}, nil
}

func (s *AuthService) generateToken(identity domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.ID,
		"name":  identity.Name,
		"email": identity.Email,
		"role":  string(identity.Role),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
