// Package skylift provisions data-replication pipelines on Airbyte Cloud.
//
// Skylift drives the Airbyte REST API through a fixed, linear sequence:
// create source → validate source → create destination → validate
// destination → discover schema → build a filtered sync catalog → create
// connection. Any step's failure halts the run; already-created remote
// resources are cleaned up best-effort.
//
// # Architecture
//
// The repository is organized as:
//
//   - cmd/skylift: cobra CLI entrypoint (provision, connection, version)
//   - pkg/airbyte: API client, typed wire records, sync catalog builder
//   - pkg/clients: tuned HTTP transport with per-request timeouts
//   - pkg/config: typed environment binding and YAML document loading
//   - pkg/errors: structured error taxonomy (config, api, decode,
//     validation, schema)
//   - pkg/logger: zap-based structured logging
//   - internal/provision: the orchestrator executing the sequence
//
// # Quick Start
//
// Export the Airbyte credentials and the values referenced by the
// documents, then run:
//
//	skylift provision \
//	    --source configs/mssql_source.yaml \
//	    --destination configs/snowflake_destination.yaml \
//	    --connection configs/connection.yaml
//
// On success the source, destination and connection identifiers are
// printed; the platform then executes the pipeline on its schedule.
package skylift
