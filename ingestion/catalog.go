package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"learnzy-server/models"
)

// Catalog holds the loaded test banks and supports reloading from disk at
// runtime. Reads and reloads may race; the bank map is swapped atomically
// under the lock.
type Catalog struct {
	mu     sync.RWMutex
	root   string
	opts   Options
	logger *zap.Logger
	banks  map[string]*models.TestBank
	order  []string
}

// NewCatalog builds an empty catalog rooted at a bank directory. Call
// Reload to populate it.
func NewCatalog(root string, opts Options, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		root:   root,
		opts:   opts,
		logger: logger,
		banks:  make(map[string]*models.TestBank),
	}
}

// Reload scans the root for bank directories (any subdirectory holding a
// bank.yaml) and swaps in the freshly loaded set. A bank that fails
// validation is logged and skipped; the scan keeps going so one bad sheet
// cannot take every test offline.
func (c *Catalog) Reload() error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return fmt.Errorf("failed to scan bank root %s: %w", c.root, err)
	}

	banks := make(map[string]*models.TestBank)
	var order []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(c.root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "bank.yaml")); err != nil {
			continue
		}
		bank, err := LoadBank(dir, c.opts)
		if err != nil {
			c.logger.Warn("skipping invalid test bank",
				zap.String("dir", dir), zap.Error(err))
			continue
		}
		if _, dup := banks[bank.ID]; dup {
			c.logger.Warn("skipping duplicate test id",
				zap.String("dir", dir), zap.String("test_id", bank.ID))
			continue
		}
		banks[bank.ID] = bank
		order = append(order, bank.ID)
		c.logger.Info("loaded test bank",
			zap.String("test_id", bank.ID),
			zap.Int("questions", len(bank.Questions)))
	}

	c.mu.Lock()
	c.banks = banks
	c.order = order
	c.mu.Unlock()
	return nil
}

// Get returns a loaded bank by test ID.
func (c *Catalog) Get(testID string) (*models.TestBank, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bank, ok := c.banks[testID]
	return bank, ok
}

// List summarizes the loaded banks in load order.
func (c *Catalog) List() []models.TestSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.TestSummary, 0, len(c.order))
	for _, id := range c.order {
		bank := c.banks[id]
		out = append(out, models.TestSummary{
			ID:            bank.ID,
			Title:         bank.Title,
			QuestionCount: len(bank.Questions),
			DurationSecs:  bank.DurationSeconds,
		})
	}
	return out
}
