// Package provision orchestrates a single end-to-end pipeline provisioning
// run against the Airbyte API: create and validate the source, create and
// validate the destination, build the sync catalog from discovered streams,
// and create the connection binding them.
//
// The run is strictly linear and terminal on first failure. Nothing is
// retried. When a step fails after remote resources were already created,
// the provisioner attempts a best-effort cleanup of those resources; cleanup
// failures are logged and never mask the original error.
package provision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/skylift/pkg/airbyte"
	"github.com/ajitpratap0/skylift/pkg/config"
	"github.com/ajitpratap0/skylift/pkg/errors"
)

// cleanupTimeout bounds the best-effort deletion of orphaned resources.
const cleanupTimeout = 2 * time.Minute

// API is the client surface the provisioner drives.
type API interface {
	CreateSource(ctx context.Context, name, definitionID string, config map[string]interface{}) (string, error)
	CheckSource(ctx context.Context, sourceID string) (bool, error)
	DeleteSource(ctx context.Context, sourceID string) error
	CreateDestination(ctx context.Context, name, definitionID string, config map[string]interface{}) (string, error)
	CheckDestination(ctx context.Context, destinationID string) (bool, error)
	DeleteDestination(ctx context.Context, destinationID string) error
	DiscoverSchema(ctx context.Context, sourceID, database, schema string, tables []string) (*airbyte.DiscoverResult, error)
	CreateConnection(ctx context.Context, spec airbyte.ConnectionSpec) (string, error)
}

// Config bundles the three provisioning documents.
type Config struct {
	Source      *config.SourceDocument
	Destination *config.DestinationDocument
	Connection  *config.ConnectionDocument
}

// Result carries the identifiers of the provisioned resources.
type Result struct {
	SourceID      string
	DestinationID string
	ConnectionID  string
}

// Provisioner executes the provisioning sequence once.
type Provisioner struct {
	api    API
	cfg    *Config
	logger *zap.Logger
}

// NewProvisioner creates a provisioner for the given documents.
func NewProvisioner(api API, cfg *Config, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		api:    api,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "provisioner")),
	}
}

// Run executes the provisioning sequence and returns the created resource
// ids. The first failing step aborts the run.
func (p *Provisioner) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("creating source", zap.String("name", p.cfg.Source.Name))
	sourceID, err := p.api.CreateSource(ctx, p.cfg.Source.Name, p.cfg.Source.DefinitionID, p.cfg.Source.ConnectionConfiguration)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to create source")
	}

	p.logger.Info("validating source", zap.String("source_id", sourceID))
	ok, err := p.api.CheckSource(ctx, sourceID)
	if err != nil {
		p.cleanup(ctx, sourceID, "")
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "source check failed")
	}
	if !ok {
		p.cleanup(ctx, sourceID, "")
		return nil, errors.New(errors.ErrorTypeValidation, "source check reported failure").
			WithDetail("source_id", sourceID)
	}

	p.logger.Info("creating destination", zap.String("name", p.cfg.Destination.Name))
	destinationID, err := p.api.CreateDestination(ctx, p.cfg.Destination.Name, p.cfg.Destination.DefinitionID, p.cfg.Destination.ConnectionConfiguration)
	if err != nil {
		p.cleanup(ctx, sourceID, "")
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to create destination")
	}

	p.logger.Info("validating destination", zap.String("destination_id", destinationID))
	ok, err = p.api.CheckDestination(ctx, destinationID)
	if err != nil {
		p.cleanup(ctx, sourceID, destinationID)
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "destination check failed")
	}
	if !ok {
		p.cleanup(ctx, sourceID, destinationID)
		return nil, errors.New(errors.ErrorTypeValidation, "destination check reported failure").
			WithDetail("destination_id", destinationID)
	}

	conn := p.cfg.Connection
	p.logger.Info("building sync catalog",
		zap.String("database", conn.Database),
		zap.String("schema", conn.Schema),
		zap.Strings("tables", conn.Tables))
	catalog, err := airbyte.BuildSyncCatalog(ctx, p.api, airbyte.CatalogRequest{
		SourceID:            sourceID,
		Database:            conn.Database,
		Schema:              conn.Schema,
		Tables:              conn.Tables,
		SyncMode:            conn.SyncMode,
		DestinationSyncMode: conn.DestinationSyncMode,
	})
	if err != nil {
		p.cleanup(ctx, sourceID, destinationID)
		return nil, fmt.Errorf("failed to build sync catalog: %w", err)
	}

	p.logger.Info("creating connection", zap.String("name", conn.Name))
	connectionID, err := p.api.CreateConnection(ctx, airbyte.ConnectionSpec{
		Name:            conn.Name,
		SourceID:        sourceID,
		DestinationID:   destinationID,
		NamespaceFormat: conn.NamespaceFormat,
		Schedule: airbyte.Schedule{
			Units:    conn.Schedule.Units,
			TimeUnit: conn.Schedule.TimeUnit,
		},
		SyncCatalog:         *catalog,
		AutoPropagateSchema: conn.AutoPropagate(),
		Status:              conn.Status,
	})
	if err != nil {
		p.cleanup(ctx, sourceID, destinationID)
		return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to create connection")
	}

	p.logger.Info("pipeline provisioned",
		zap.String("source_id", sourceID),
		zap.String("destination_id", destinationID),
		zap.String("connection_id", connectionID))

	return &Result{
		SourceID:      sourceID,
		DestinationID: destinationID,
		ConnectionID:  connectionID,
	}, nil
}

// cleanup deletes already-created resources after a failed step. It runs on
// a detached context so a canceled run can still release its resources, and
// only logs failures: orphans that survive cleanup must be removed out of
// band.
func (p *Provisioner) cleanup(ctx context.Context, sourceID, destinationID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if destinationID != "" {
		if err := p.api.DeleteDestination(cleanupCtx, destinationID); err != nil {
			p.logger.Warn("failed to clean up destination",
				zap.String("destination_id", destinationID), zap.Error(err))
		} else {
			p.logger.Info("cleaned up destination", zap.String("destination_id", destinationID))
		}
	}

	if sourceID != "" {
		if err := p.api.DeleteSource(cleanupCtx, sourceID); err != nil {
			p.logger.Warn("failed to clean up source",
				zap.String("source_id", sourceID), zap.Error(err))
		} else {
			p.logger.Info("cleaned up source", zap.String("source_id", sourceID))
		}
	}
}
