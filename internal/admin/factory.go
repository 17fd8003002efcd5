package admin

import (
	"fmt"

	"opulanz-onboarding/internal/common/config"

	"github.com/jmoiron/sqlx"
)

// NewStore selects the back office store from admin.store. db is only used by
// the postgres store.
func NewStore(cfg config.AdminConfig, db *sqlx.DB) (Store, error) {
	switch cfg.Store {
	case "", config.AdminStoreMemory:
		return NewMemoryStore(cfg.Seed), nil
	case config.AdminStorePostgres:
		if db == nil {
			return nil, fmt.Errorf("admin store %q needs a postgres connection", cfg.Store)
		}
		return NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown admin store %q", cfg.Store)
}
