package neo4j

import (
	"context"
	"errors"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"notelink-backend/infrastructure/config"
	pkgerrors "notelink-backend/pkg/errors"
)

// Graph wraps the Neo4j driver with session-per-call execution, per-query
// timeouts, and error taxonomy mapping. Repositories never touch the
// driver directly.
type Graph struct {
	driver       neo4j.DriverWithContext
	database     string
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewGraph connects to the graph store and verifies connectivity.
func NewGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUsername, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("connect", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, pkgerrors.NewPersistenceError("connect", err)
	}

	logger.Info("connected to graph store", zap.String("uri", cfg.Neo4jURI))
	return &Graph{
		driver:       driver,
		database:     cfg.Neo4jDatabase,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}, nil
}

// Close releases the underlying driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// Ping verifies connectivity for readiness checks.
func (g *Graph) Ping(ctx context.Context) error {
	if err := g.driver.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.NewPersistenceError("ping", err)
	}
	return nil
}

// ExecuteRead runs work in a read transaction on a fresh session, bounded
// by the read timeout.
func (g *Graph) ExecuteRead(ctx context.Context, operation string, work func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.readTimeout)
	defer cancel()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(ctx, tx)
	})
	if err != nil {
		return nil, g.mapError(operation, err)
	}
	return result, nil
}

// ExecuteWrite runs work in a write transaction on a fresh session, bounded
// by the write timeout.
func (g *Graph) ExecuteWrite(ctx context.Context, operation string, work func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.writeTimeout)
	defer cancel()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(ctx, tx)
	})
	if err != nil {
		return nil, g.mapError(operation, err)
	}
	return result, nil
}

// mapError translates driver failures into the application error taxonomy.
// Errors already carrying a taxonomy type pass through unchanged.
func (g *Graph) mapError(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError(operation)
	}
	g.logger.Error("graph query failed", zap.String("operation", operation), zap.Error(err))
	return pkgerrors.NewPersistenceError(operation, err)
}
