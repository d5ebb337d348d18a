package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// FileProductRepo keeps the whole catalog in one JSON file keyed by product
// id. Mutations are serialized by a mutex and land via temp-file-plus-rename.
type FileProductRepo struct {
	mu   sync.Mutex
	path string
}

func NewFileProductRepo(path string) *FileProductRepo {
	return &FileProductRepo{path: path}
}

// Load returns the catalog, or the seed catalog when no file exists yet.
func (r *FileProductRepo) Load(ctx context.Context) (map[string]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileProductRepo) load() (map[string]domain.Product, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return seedCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	var byID map[string]domain.Product
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return byID, nil
}

// Replace atomically overwrites the whole catalog.
func (r *FileProductRepo) Replace(ctx context.Context, products map[string]domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	return writeFileAtomic(r.path, data)
}

// seedCatalog is the deterministic default for an empty store.
func seedCatalog() map[string]domain.Product {
	p := domain.Product{
		ID:          "starter-pack",
		Name:        "Starter Pack",
		Description: "A sample virtual-goods bundle to try the shop with.",
		Prices: map[string]decimal.Decimal{
			"rmb": decimal.NewFromInt(50),
		},
		PaymentMethods: []string{"rmb"},
	}
	return map[string]domain.Product{p.ID: p}
}

var _ usecase.ProductRepo = (*FileProductRepo)(nil)
