package draftstore

import (
	"testing"

	"opulanz-onboarding/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		backends func(t *testing.T) Backends
		want     string
		wantErr  bool
	}{
		{name: "default memory", backend: "", backends: func(*testing.T) Backends { return Backends{} }, want: "memory"},
		{name: "badger", backend: config.BackendBadger, backends: func(t *testing.T) Backends { return Backends{Badger: openBadger(t)} }, want: "badger"},
		{name: "dynamodb", backend: config.BackendDynamoDB, backends: func(*testing.T) Backends { return Backends{Dynamo: newFakeDynamo()} }, want: "dynamodb"},
		{name: "redis without client", backend: config.BackendRedis, backends: func(*testing.T) Backends { return Backends{} }, wantErr: true},
		{name: "unknown", backend: "sqlite", backends: func(*testing.T) Backends { return Backends{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DraftStoreConfig{Backend: tt.backend, KeyPrefix: "opulanz"}
			store, history, err := New(cfg, tt.backends(t), newTestLogger(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.Name())
			assert.NotNil(t, history)
		})
	}
}
