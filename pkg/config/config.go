// Package config provides the typed configuration for a Skylift provisioning
// run. Credentials and endpoints come from named environment variables bound
// into the Env struct and validated once at startup. The three provisioning
// documents (source, destination, connection) are YAML files loaded by this
// package after environment substitution.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ajitpratap0/skylift/pkg/errors"
)

// Env holds environment-supplied settings for the Airbyte API.
type Env struct {
	// APIURL is the Airbyte API base URL
	APIURL string `env:"AIRBYTE_API_URL" envDefault:"https://api.airbyte.com/v1"`
	// APIToken authenticates requests (bearer token)
	APIToken string `env:"AIRBYTE_API_TOKEN,required"`
	// WorkspaceID scopes created resources to an Airbyte workspace
	WorkspaceID string `env:"AIRBYTE_WORKSPACE_ID,required"`
	// RequestTimeout bounds each individual API call
	RequestTimeout time.Duration `env:"AIRBYTE_REQUEST_TIMEOUT" envDefault:"60s"`
}

// LoadEnv binds and validates the environment configuration.
func LoadEnv() (*Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load environment configuration")
	}
	return &e, nil
}

// SourceDocument describes the source connector to create.
type SourceDocument struct {
	Name                    string                 `yaml:"name"`
	DefinitionID            string                 `yaml:"definitionId"`
	ConnectionConfiguration map[string]interface{} `yaml:"connectionConfiguration"`
}

// Validate checks that all required keys are present.
func (d *SourceDocument) Validate() error {
	return validateConnector("source", d.Name, d.DefinitionID, d.ConnectionConfiguration)
}

// DestinationDocument describes the destination connector to create.
type DestinationDocument struct {
	Name                    string                 `yaml:"name"`
	DefinitionID            string                 `yaml:"definitionId"`
	ConnectionConfiguration map[string]interface{} `yaml:"connectionConfiguration"`
}

// Validate checks that all required keys are present.
func (d *DestinationDocument) Validate() error {
	return validateConnector("destination", d.Name, d.DefinitionID, d.ConnectionConfiguration)
}

// Schedule is the sync cadence attached to a connection.
type Schedule struct {
	Units    int    `yaml:"units"`
	TimeUnit string `yaml:"timeUnit"`
}

// ConnectionDocument describes the connection binding source and destination,
// including the table list the sync catalog is built from.
type ConnectionDocument struct {
	Name                string   `yaml:"name"`
	NamespaceFormat     string   `yaml:"namespaceFormat"`
	Schedule            Schedule `yaml:"schedule"`
	Database            string   `yaml:"database"`
	Schema              string   `yaml:"schema"`
	Tables              []string `yaml:"tables"`
	SyncMode            string   `yaml:"syncMode"`
	DestinationSyncMode string   `yaml:"destinationSyncMode"`
	AutoPropagateSchema *bool    `yaml:"autoPropagateSchema"`
	Status              string   `yaml:"status"`
}

// Validate checks required keys and applies defaults for optional ones.
func (d *ConnectionDocument) Validate() error {
	if d.Name == "" {
		return missingKey("connection", "name")
	}
	if d.Schedule.Units <= 0 || d.Schedule.TimeUnit == "" {
		return missingKey("connection", "schedule")
	}
	if len(d.Tables) == 0 {
		return missingKey("connection", "tables")
	}
	if d.SyncMode == "" {
		return missingKey("connection", "syncMode")
	}
	if d.DestinationSyncMode == "" {
		return missingKey("connection", "destinationSyncMode")
	}
	if d.NamespaceFormat == "" {
		// Airbyte-side macro resolved by the platform, not locally
		d.NamespaceFormat = "${SOURCE_NAMESPACE}"
	}
	if d.Status == "" {
		d.Status = "active"
	}
	return nil
}

// AutoPropagate returns the autoPropagateSchema flag, defaulting to true.
func (d *ConnectionDocument) AutoPropagate() bool {
	if d.AutoPropagateSchema == nil {
		return true
	}
	return *d.AutoPropagateSchema
}

func validateConnector(kind, name, definitionID string, cfg map[string]interface{}) error {
	if name == "" {
		return missingKey(kind, "name")
	}
	if definitionID == "" {
		return missingKey(kind, "definitionId")
	}
	if len(cfg) == 0 {
		return missingKey(kind, "connectionConfiguration")
	}
	return nil
}

func missingKey(document, key string) error {
	return errors.New(errors.ErrorTypeConfig,
		fmt.Sprintf("%s document missing required key %q", document, key)).
		WithDetail("document", document).
		WithDetail("key", key)
}
