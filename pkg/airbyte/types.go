package airbyte

import (
	gojson "github.com/goccy/go-json"
)

// Connector validation status reported by check_connection calls.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Connection lifecycle states accepted by the API.
const (
	ConnectionStatusActive   = "active"
	ConnectionStatusInactive = "inactive"
)

const connectorTypeSource = "source"

// createSourceRequest is the payload for POST /sources/create.
type createSourceRequest struct {
	Name                    string                 `json:"name"`
	SourceDefinitionID      string                 `json:"sourceDefinitionId"`
	WorkspaceID             string                 `json:"workspaceId"`
	ConnectionConfiguration map[string]interface{} `json:"connectionConfiguration"`
}

// createSourceResponse carries the identifier assigned to a new source.
type createSourceResponse struct {
	SourceID string `json:"sourceId"`
}

// createDestinationRequest is the payload for POST /destinations/create.
type createDestinationRequest struct {
	Name                    string                 `json:"name"`
	DestinationDefinitionID string                 `json:"destinationDefinitionId"`
	WorkspaceID             string                 `json:"workspaceId"`
	ConnectionConfiguration map[string]interface{} `json:"connectionConfiguration"`
}

// createDestinationResponse carries the identifier assigned to a new destination.
type createDestinationResponse struct {
	DestinationID string `json:"destinationId"`
}

// checkRequest identifies the connector to validate.
type checkRequest struct {
	SourceID      string `json:"sourceId,omitempty"`
	DestinationID string `json:"destinationId,omitempty"`
}

// checkResponse is the validation outcome. Status other than "succeeded"
// is a normal (false) result, not an error.
type checkResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// deleteSourceRequest is the payload for POST /sources/delete.
type deleteSourceRequest struct {
	SourceID string `json:"sourceId"`
}

// deleteDestinationRequest is the payload for POST /destinations/delete.
type deleteDestinationRequest struct {
	DestinationID string `json:"destinationId"`
}

// discoverRequest is the payload for POST /connections/discover_schema.
// The filter is attached only when at least one of its fields is set.
type discoverRequest struct {
	SourceID      string          `json:"sourceId"`
	ConnectorType string          `json:"connectorType"`
	Schema        *discoverFilter `json:"schema,omitempty"`
}

// discoverFilter scopes discovery to a database, schema and table set.
type discoverFilter struct {
	Database string   `json:"database,omitempty"`
	Schema   string   `json:"schema,omitempty"`
	Tables   []string `json:"tables,omitempty"`
}

// DiscoverResult is the full discovery payload returned by the platform.
type DiscoverResult struct {
	CatalogID string             `json:"catalogId,omitempty"`
	Streams   []DiscoveredStream `json:"streams"`
}

// DiscoveredStream is one entry of the discovered stream list.
type DiscoveredStream struct {
	Stream StreamDescriptor `json:"stream"`
}

// StreamDescriptor describes one remote table exposed by a source.
type StreamDescriptor struct {
	Name                    string            `json:"name"`
	JSONSchema              gojson.RawMessage `json:"jsonSchema"`
	SupportedSyncModes      []string          `json:"supportedSyncModes"`
	SourceDefinedCursor     []string          `json:"sourceDefinedCursor,omitempty"`
	SourceDefinedPrimaryKey [][]string        `json:"sourceDefinedPrimaryKey,omitempty"`
}

// ConfiguredStreamDescriptor is the stream portion of a catalog entry.
type ConfiguredStreamDescriptor struct {
	Name               string            `json:"name"`
	JSONSchema         gojson.RawMessage `json:"jsonSchema"`
	SupportedSyncModes []string          `json:"supportedSyncModes"`
}

// ConfiguredStream re-tags a discovered stream with the chosen sync modes
// and the cursor/key fields carried over from discovery.
type ConfiguredStream struct {
	Stream              ConfiguredStreamDescriptor `json:"stream"`
	SyncMode            string                     `json:"syncMode"`
	DestinationSyncMode string                     `json:"destinationSyncMode"`
	CursorField         []string                   `json:"cursorField"`
	PrimaryKey          [][]string                 `json:"primaryKey"`
}

// SyncCatalog is the stream set attached to a connection.
type SyncCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

// Schedule is the sync cadence of a connection, e.g. {5, "minutes"}.
type Schedule struct {
	Units    int    `json:"units"`
	TimeUnit string `json:"timeUnit"`
}

// ConnectionSpec is the payload for POST /connections/create.
type ConnectionSpec struct {
	Name                string      `json:"name"`
	SourceID            string      `json:"sourceId"`
	DestinationID       string      `json:"destinationId"`
	NamespaceFormat     string      `json:"namespaceFormat"`
	Schedule            Schedule    `json:"schedule"`
	SyncCatalog         SyncCatalog `json:"syncCatalog"`
	AutoPropagateSchema bool        `json:"autoPropagateSchema"`
	Status              string      `json:"status"`
}

// createConnectionResponse carries the identifier assigned to a new connection.
type createConnectionResponse struct {
	ConnectionID string `json:"connectionId"`
}

// Connection is the record returned by GET /connections/get.
type Connection struct {
	ConnectionID        string       `json:"connectionId"`
	Name                string       `json:"name"`
	SourceID            string       `json:"sourceId"`
	DestinationID       string       `json:"destinationId"`
	NamespaceFormat     string       `json:"namespaceFormat,omitempty"`
	Schedule            *Schedule    `json:"schedule,omitempty"`
	SyncCatalog         *SyncCatalog `json:"syncCatalog,omitempty"`
	AutoPropagateSchema bool         `json:"autoPropagateSchema,omitempty"`
	Status              string       `json:"status"`
}
