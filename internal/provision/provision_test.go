package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/skylift/pkg/airbyte"
	"github.com/ajitpratap0/skylift/pkg/config"
	"github.com/ajitpratap0/skylift/pkg/errors"
)

// fakeAPI records the operations invoked on it and fails or degrades
// specific steps on demand.
type fakeAPI struct {
	calls []string

	createSourceErr   error
	sourceCheckResult bool
	destCheckResult   bool
	discoverResult    *airbyte.DiscoverResult

	connectionSpec airbyte.ConnectionSpec
}

func (f *fakeAPI) CreateSource(ctx context.Context, name, definitionID string, cfg map[string]interface{}) (string, error) {
	f.calls = append(f.calls, "CreateSource")
	if f.createSourceErr != nil {
		return "", f.createSourceErr
	}
	return "src-1", nil
}

func (f *fakeAPI) CheckSource(ctx context.Context, sourceID string) (bool, error) {
	f.calls = append(f.calls, "CheckSource")
	return f.sourceCheckResult, nil
}

func (f *fakeAPI) DeleteSource(ctx context.Context, sourceID string) error {
	f.calls = append(f.calls, "DeleteSource")
	return nil
}

func (f *fakeAPI) CreateDestination(ctx context.Context, name, definitionID string, cfg map[string]interface{}) (string, error) {
	f.calls = append(f.calls, "CreateDestination")
	return "dst-1", nil
}

func (f *fakeAPI) CheckDestination(ctx context.Context, destinationID string) (bool, error) {
	f.calls = append(f.calls, "CheckDestination")
	return f.destCheckResult, nil
}

func (f *fakeAPI) DeleteDestination(ctx context.Context, destinationID string) error {
	f.calls = append(f.calls, "DeleteDestination")
	return nil
}

func (f *fakeAPI) DiscoverSchema(ctx context.Context, sourceID, database, schema string, tables []string) (*airbyte.DiscoverResult, error) {
	f.calls = append(f.calls, "DiscoverSchema")
	return f.discoverResult, nil
}

func (f *fakeAPI) CreateConnection(ctx context.Context, spec airbyte.ConnectionSpec) (string, error) {
	f.calls = append(f.calls, "CreateConnection")
	f.connectionSpec = spec
	return "conn-1", nil
}

func testConfig() *Config {
	autoPropagate := true
	return &Config{
		Source: &config.SourceDocument{
			Name:                    "mssql-loan-data",
			DefinitionID:            "def-src",
			ConnectionConfiguration: map[string]interface{}{"host": "sqlserver.internal"},
		},
		Destination: &config.DestinationDocument{
			Name:                    "snowflake-loan-warehouse",
			DefinitionID:            "def-dst",
			ConnectionConfiguration: map[string]interface{}{"warehouse": "COMPUTE_WH"},
		},
		Connection: &config.ConnectionDocument{
			Name:                "mssql-to-snowflake-cdc",
			NamespaceFormat:     "${SOURCE_NAMESPACE}",
			Schedule:            config.Schedule{Units: 5, TimeUnit: "minutes"},
			Database:            "LoanDataServices",
			Schema:              "dbo",
			Tables:              []string{"Loans", "Payments"},
			SyncMode:            "incremental",
			DestinationSyncMode: "append_dedup",
			AutoPropagateSchema: &autoPropagate,
			Status:              "active",
		},
	}
}

func healthyDiscovery() *airbyte.DiscoverResult {
	return &airbyte.DiscoverResult{Streams: []airbyte.DiscoveredStream{
		{Stream: airbyte.StreamDescriptor{
			Name:               "Loans",
			JSONSchema:         []byte(`{"type": "object"}`),
			SupportedSyncModes: []string{"incremental"},
		}},
		{Stream: airbyte.StreamDescriptor{
			Name:               "Payments",
			JSONSchema:         []byte(`{"type": "object"}`),
			SupportedSyncModes: []string{"incremental"},
		}},
	}}
}

func TestRunSuccess(t *testing.T) {
	api := &fakeAPI{
		sourceCheckResult: true,
		destCheckResult:   true,
		discoverResult:    healthyDiscovery(),
	}

	result, err := NewProvisioner(api, testConfig(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "src-1", result.SourceID)
	assert.Equal(t, "dst-1", result.DestinationID)
	assert.Equal(t, "conn-1", result.ConnectionID)

	assert.Equal(t, []string{
		"CreateSource", "CheckSource",
		"CreateDestination", "CheckDestination",
		"DiscoverSchema", "CreateConnection",
	}, api.calls)

	// Connection spec reflects the documents and built catalog
	spec := api.connectionSpec
	assert.Equal(t, "src-1", spec.SourceID)
	assert.Equal(t, "dst-1", spec.DestinationID)
	assert.Equal(t, "${SOURCE_NAMESPACE}", spec.NamespaceFormat)
	assert.Equal(t, airbyte.Schedule{Units: 5, TimeUnit: "minutes"}, spec.Schedule)
	assert.Len(t, spec.SyncCatalog.Streams, 2)
	assert.True(t, spec.AutoPropagateSchema)
	assert.Equal(t, "active", spec.Status)
}

func TestRunSourceCreateFails(t *testing.T) {
	api := &fakeAPI{
		createSourceErr: errors.New(errors.ErrorTypeAPI, "airbyte API POST /sources/create returned HTTP 500"),
	}

	_, err := NewProvisioner(api, testConfig(), zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))

	// Nothing was created, so nothing to clean up
	assert.Equal(t, []string{"CreateSource"}, api.calls)
}

func TestRunSourceCheckReportsFailure(t *testing.T) {
	api := &fakeAPI{sourceCheckResult: false}

	_, err := NewProvisioner(api, testConfig(), zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.Equal(t, []string{"CreateSource", "CheckSource", "DeleteSource"}, api.calls)
}

func TestRunDestinationCheckReportsFailure(t *testing.T) {
	api := &fakeAPI{
		sourceCheckResult: true,
		destCheckResult:   false,
	}

	_, err := NewProvisioner(api, testConfig(), zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	// Halted after the destination check: no discovery, no connection,
	// both created resources cleaned up.
	assert.NotContains(t, api.calls, "DiscoverSchema")
	assert.NotContains(t, api.calls, "CreateConnection")
	assert.Equal(t, []string{
		"CreateSource", "CheckSource",
		"CreateDestination", "CheckDestination",
		"DeleteDestination", "DeleteSource",
	}, api.calls)
}

func TestRunMissingTableCleansUp(t *testing.T) {
	api := &fakeAPI{
		sourceCheckResult: true,
		destCheckResult:   true,
		discoverResult: &airbyte.DiscoverResult{Streams: []airbyte.DiscoveredStream{
			{Stream: airbyte.StreamDescriptor{Name: "Loans", JSONSchema: []byte(`{}`)}},
		}},
	}

	_, err := NewProvisioner(api, testConfig(), zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
	assert.Contains(t, err.Error(), "Payments")

	assert.NotContains(t, api.calls, "CreateConnection")
	assert.Contains(t, api.calls, "DeleteSource")
	assert.Contains(t, api.calls, "DeleteDestination")
}

// TestRunEndToEnd drives the real API client against a mock Airbyte server.
func TestRunEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sources/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sourceId": "src-1"}`))
	})
	mux.HandleFunc("/sources/check_connection", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "succeeded"}`))
	})
	mux.HandleFunc("/destinations/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"destinationId": "dst-1"}`))
	})
	mux.HandleFunc("/destinations/check_connection", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "succeeded"}`))
	})
	mux.HandleFunc("/connections/discover_schema", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"catalogId": "cat-1", "streams": [
			{"stream": {"name": "Loans", "jsonSchema": {"type": "object"}, "supportedSyncModes": ["incremental"]}},
			{"stream": {"name": "Payments", "jsonSchema": {"type": "object"}, "supportedSyncModes": ["incremental"]}}
		]}`))
	})
	var connectionPayload map[string]interface{}
	mux.HandleFunc("/connections/create", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&connectionPayload))
		_, _ = w.Write([]byte(`{"connectionId": "conn-1"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := airbyte.NewClient(airbyte.ClientConfig{
		BaseURL:     srv.URL,
		APIToken:    "test-token",
		WorkspaceID: "ws-1",
	}, zap.NewNop())
	defer client.Close() //nolint:errcheck

	result, err := NewProvisioner(client, testConfig(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "src-1", result.SourceID)
	assert.Equal(t, "dst-1", result.DestinationID)
	assert.Equal(t, "conn-1", result.ConnectionID)

	catalog := connectionPayload["syncCatalog"].(map[string]interface{})
	streams := catalog["streams"].([]interface{})
	require.Len(t, streams, 2)
}

// TestRunEndToEndDestinationCheckFails verifies the run halts after the
// destination check without ever reaching discovery.
func TestRunEndToEndDestinationCheckFails(t *testing.T) {
	var discoverCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/sources/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sourceId": "src-1"}`))
	})
	mux.HandleFunc("/sources/check_connection", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "succeeded"}`))
	})
	mux.HandleFunc("/destinations/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"destinationId": "dst-1"}`))
	})
	mux.HandleFunc("/destinations/check_connection", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "failed", "message": "authentication failed"}`))
	})
	mux.HandleFunc("/sources/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/destinations/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/connections/discover_schema", func(w http.ResponseWriter, r *http.Request) {
		discoverCalls++
		_, _ = fmt.Fprint(w, `{"streams": []}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := airbyte.NewClient(airbyte.ClientConfig{
		BaseURL:     srv.URL,
		APIToken:    "test-token",
		WorkspaceID: "ws-1",
	}, zap.NewNop())
	defer client.Close() //nolint:errcheck

	_, err := NewProvisioner(client, testConfig(), zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Zero(t, discoverCalls)
}
