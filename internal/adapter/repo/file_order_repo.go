package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// FileOrderRepo keeps the order log as a JSON array in append order. Every
// mutation is a full read-modify-write of the collection under one mutex,
// written out atomically.
type FileOrderRepo struct {
	mu   sync.Mutex
	path string
}

func NewFileOrderRepo(path string) *FileOrderRepo {
	return &FileOrderRepo{path: path}
}

// Load returns all orders; a missing file is an empty log, not an error.
func (r *FileOrderRepo) Load(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileOrderRepo) load() ([]domain.Order, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return orders, nil
}

// Append adds one order to the log.
func (r *FileOrderRepo) Append(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	orders = append(orders, o)
	return r.write(orders)
}

// UpdateStatus rewrites the matching order with the new status and a fresh
// UpdatedAt. An unknown id is a recoverable miss: (false, nil), no write.
func (r *FileOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].ID == id {
			orders[i].Status = status
			orders[i].UpdatedAt = time.Now().UTC()
			return true, r.write(orders)
		}
	}
	return false, nil
}

func (r *FileOrderRepo) write(orders []domain.Order) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	return writeFileAtomic(r.path, data)
}

var _ usecase.OrderRepo = (*FileOrderRepo)(nil)
