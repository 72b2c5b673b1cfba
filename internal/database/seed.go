package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed demo_catalogue.yaml
var demoCatalogue []byte

type seedProduct struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Category    models.ProductCategory `yaml:"category"`
	Price       decimal.Decimal        `yaml:"price"`
	Stock       int                    `yaml:"stock"`
	Unit        string                 `yaml:"unit"`
	Threshold   int                    `yaml:"threshold"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

// Catalogue is the demo data set loaded by SeedDemoData.
type Catalogue struct {
	Staff    []seedUser    `yaml:"staff"`
	Products []seedProduct `yaml:"products"`
}

// LoadDemoCatalogue parses the bundled demo catalogue.
func LoadDemoCatalogue() (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(demoCatalogue, &c); err != nil {
		return nil, fmt.Errorf("could not parse demo catalogue: %w", err)
	}
	return &c, nil
}

// SeedDemoData creates the demo staff accounts and products.
// Products are only seeded into an empty catalogue; existing usernames are skipped.
func SeedDemoData(ctx context.Context, auth services.AuthService, inventory services.InventoryService) error {
	catalogue, err := LoadDemoCatalogue()
	if err != nil {
		return err
	}

	for _, u := range catalogue.Staff {
		fullName := u.FullName
		_, err := auth.CreateUser(ctx, services.CreateUserRequest{
			Username: u.Username,
			Password: u.Password,
			FullName: &fullName,
			Role:     models.RoleStaff,
		})
		if err != nil && !errors.Is(err, services.ErrUsernameExists) {
			return fmt.Errorf("seeding user %s: %w", u.Username, err)
		}
	}

	listing, err := inventory.ListInventory(ctx)
	if err != nil {
		return err
	}
	if len(listing.Products) > 0 {
		utils.LogInfo("catalogue already populated, skipping demo products", map[string]interface{}{"products": len(listing.Products)})
		return nil
	}

	for _, p := range catalogue.Products {
		description, stock, threshold, unit := p.Description, p.Stock, p.Threshold, p.Unit
		if _, err := inventory.CreateProduct(ctx, services.CreateProductRequest{
			Name:              p.Name,
			Description:       &description,
			Category:          p.Category,
			Price:             p.Price,
			CurrentStock:      &stock,
			LowStockThreshold: &threshold,
			Unit:              &unit,
		}); err != nil {
			return fmt.Errorf("seeding product %s: %w", p.Name, err)
		}
	}
	utils.LogInfo("demo catalogue seeded", map[string]interface{}{
		"products": len(catalogue.Products), "staff": len(catalogue.Staff),
	})
	return nil
}
