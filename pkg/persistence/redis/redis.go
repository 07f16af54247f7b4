// Package redis provides a Redis-backed persistence for workflow definitions,
// the run log and the work state.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "stepflow"

// Persistence stores everything under a common key prefix:
//
//	<prefix>:workflows          hash of name -> definition JSON
//	<prefix>:run:<run id>       list of run entry JSON in append order
//	<prefix>:latest:<workflow>  id of the run that received the last entry
//	<prefix>:work-state         work state document
type Persistence struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

// Option configures a Persistence.
type Option func(*Persistence)

// WithPrefix sets the key prefix. Default is "stepflow".
func WithPrefix(prefix string) Option {
	return func(p *Persistence) {
		p.prefix = prefix
	}
}

// NewPersistence wraps an existing client.
func NewPersistence(client *goredis.Client, opts ...Option) *Persistence {
	p := &Persistence{
		client: client,
		prefix: defaultPrefix,
		logger: log.WithModule("redis_persistence"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewPersistenceFromURL parses a redis:// URL, connects and pings the server.
func NewPersistenceFromURL(ctx context.Context, redisURL string, opts ...Option) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	p := NewPersistence(goredis.NewClient(options), opts...)

	err = p.HealthCheck(ctx)
	if err != nil {
		_ = p.client.Close()

		return nil, err
	}

	return p, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return &WorkflowRepository{client: p.client, key: p.key("workflows"), logger: p.logger}
}

func (p *Persistence) RunLogRepository() persistence.RunLogRepository {
	return &RunLogRepository{client: p.client, prefix: p.prefix}
}

func (p *Persistence) WorkStateRepository() persistence.WorkStateRepository {
	return &WorkStateRepository{client: p.client, key: p.key("work-state")}
}

func (p *Persistence) key(parts ...string) string {
	key := p.prefix
	for _, part := range parts {
		key += ":" + part
	}

	return key
}
