package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/storage"
	"finsight/internal/store/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h/"})
	require.NoError(t, err)
	assert.Equal(t, SQLite, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestFactory_Memory(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{Type: Memory})
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Ready(context.Background()))
}

func TestFactory_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsight.db")
	res, err := NewFactory(nil).Create(context.Background(), Config{Type: SQLite, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	require.NoError(t, res.Ready(context.Background()))

	_, err = res.Store.Create(context.Background(), "u1", core.Record{Kind: core.KindIncome, Amount: core.Rupees(10)})
	require.NoError(t, err)
}

func TestFactory_AMQPFailureIsNotFatal(t *testing.T) {
	f := NewFactory(nil)
	f.dial = func(string, string, string, *log.Logger) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}
	res, err := f.Create(context.Background(), Config{Type: Memory, AMQPURL: "amqp://localhost:5672/"})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher)
}

func TestFactory_UnknownType(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}
