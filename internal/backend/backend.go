// Package backend builds the record store and event publisher selected by
// configuration.
package backend

import (
	"context"
	"fmt"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/store"
)

// Type names a storage backend.
type Type string

const (
	SQLite Type = config.BackendSQLite
	Memory Type = config.BackendMemory
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// Config holds what the factory needs. It is a narrowed view of config.Config.
type Config struct {
	Type         Type
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig narrows the application config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:         t,
		SQLiteDBPath: c.SQLiteDBPath,
		AMQPURL:      c.AMQPURL,
		AMQPExchange: c.AMQPExchange,
		AMQPQueue:    c.AMQPQueue,
	}, nil
}

// Publisher sends record events. It is nil when AMQP is disabled.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, e amqp.RecordEvent) error
}

// Result is a ready store plus its optional publisher.
type Result struct {
	Store     store.RecordStore
	Publisher Publisher
	// Ready checks backing services for the readiness probe.
	Ready   func(ctx context.Context) error
	Cleanup func() error
}

// Close runs Cleanup if set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
