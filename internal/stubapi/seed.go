package stubapi

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tiendita/storefront/internal/core/domain"
)

// Seed is the initial content of the stub API, read from YAML:
//
//	users:
//	  - name: Admin
//	    email: admin@example.com
//	    password: admin123
//	    role: admin
//	products:
//	  - name: Mug
//	    description: Ceramic mug
//	    price: "12.50"
//	    stock: 10
type Seed struct {
	Users    []SeedUser    `yaml:"users"`
	Products []SeedProduct `yaml:"products"`
}

type SeedUser struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     domain.Role `yaml:"role"`
}

type SeedProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
}

// DefaultSeed is used when no seed file is configured.
func DefaultSeed() Seed {
	return Seed{
		Users: []SeedUser{
			{Name: "Admin", Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin},
			{Name: "Client", Email: "client@example.com", Password: "client123", Role: domain.RoleClient},
		},
		Products: []SeedProduct{
			{Name: "Ceramic Mug", Description: "350ml stoneware mug", Price: "12.50", Stock: 10},
			{Name: "Linen Tote", Description: "Natural linen shopping bag", Price: "18.00", Stock: 5},
			{Name: "Desk Lamp", Description: "Adjustable LED lamp", Price: "49.99", Stock: 0},
		},
	}
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes YAML seed content and checks roles, prices and stock.
func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	for i, u := range seed.Users {
		if u.Role == "" {
			seed.Users[i].Role = domain.RoleClient
		} else if !u.Role.Valid() {
			return Seed{}, fmt.Errorf("parse seed: user %s: unknown role %q", u.Email, u.Role)
		}
	}
	for _, p := range seed.Products {
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return Seed{}, fmt.Errorf("parse seed: product %s: bad price %q", p.Name, p.Price)
		}
		if p.Stock < 0 {
			return Seed{}, fmt.Errorf("parse seed: product %s: negative stock", p.Name)
		}
	}
	return seed, nil
}

// Apply loads seed into the store through auth so passwords are hashed.
func (seed Seed) Apply(ctx context.Context, store *Store, auth *AuthService) error {
	for _, u := range seed.Users {
		identity := domain.Identity{Name: u.Name, Email: u.Email, Role: u.Role}
		if _, err := auth.CreateAccount(ctx, identity, u.Password); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, p := range seed.Products {
		store.CreateProduct(ctx, domain.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.RequireFromString(p.Price),
			Stock:       p.Stock,
		})
	}
	return nil
}
