package airbyte

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/skylift/pkg/errors"
)

// Discoverer is the discovery capability BuildSyncCatalog needs from a client.
type Discoverer interface {
	DiscoverSchema(ctx context.Context, sourceID, database, schema string, tables []string) (*DiscoverResult, error)
}

// CatalogRequest scopes catalog construction to a table set and fixes the
// sync modes applied to every retained stream.
type CatalogRequest struct {
	SourceID            string
	Database            string
	Schema              string
	Tables              []string
	SyncMode            string
	DestinationSyncMode string
}

// BuildSyncCatalog discovers the source's streams scoped to the requested
// tables and assembles the sync catalog for connection creation. Streams
// keep discovery order. Every requested table must appear exactly once in
// the result; duplicates in the request are rejected upfront and tables
// absent from discovery fail the build naming exactly the missing ones.
func BuildSyncCatalog(ctx context.Context, d Discoverer, req CatalogRequest) (*SyncCatalog, error) {
	requested := make(map[string]struct{}, len(req.Tables))
	for _, table := range req.Tables {
		if _, ok := requested[table]; ok {
			return nil, errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("duplicate table %q in requested table list", table)).
				WithDetail("table", table)
		}
		requested[table] = struct{}{}
	}

	result, err := d.DiscoverSchema(ctx, req.SourceID, req.Database, req.Schema, req.Tables)
	if err != nil {
		return nil, err
	}

	if len(result.Streams) == 0 {
		return nil, errors.New(errors.ErrorTypeSchema,
			fmt.Sprintf("discovery returned no streams for tables [%s]", strings.Join(req.Tables, ", "))).
			WithDetail("source_id", req.SourceID)
	}

	streams := make([]ConfiguredStream, 0, len(req.Tables))
	retained := make(map[string]struct{}, len(req.Tables))
	for _, entry := range result.Streams {
		name := entry.Stream.Name
		if _, ok := requested[name]; !ok {
			continue
		}

		streams = append(streams, ConfiguredStream{
			Stream: ConfiguredStreamDescriptor{
				Name:               name,
				JSONSchema:         entry.Stream.JSONSchema,
				SupportedSyncModes: entry.Stream.SupportedSyncModes,
			},
			SyncMode:            req.SyncMode,
			DestinationSyncMode: req.DestinationSyncMode,
			CursorField:         orEmptyCursor(entry.Stream.SourceDefinedCursor),
			PrimaryKey:          orEmptyKey(entry.Stream.SourceDefinedPrimaryKey),
		})
		retained[name] = struct{}{}
	}

	if len(streams) != len(req.Tables) {
		missing := make([]string, 0, len(req.Tables))
		for table := range requested {
			if _, ok := retained[table]; !ok {
				missing = append(missing, table)
			}
		}
		sort.Strings(missing)
		return nil, errors.New(errors.ErrorTypeSchema,
			fmt.Sprintf("tables not discovered: [%s]", strings.Join(missing, ", "))).
			WithDetail("missing", missing)
	}

	return &SyncCatalog{Streams: streams}, nil
}

// orEmptyCursor keeps the wire shape stable: absent cursors serialize as []
// rather than null.
func orEmptyCursor(cursor []string) []string {
	if cursor == nil {
		return []string{}
	}
	return cursor
}

// orEmptyKey keeps the wire shape stable: absent primary keys serialize as
// [] rather than null.
func orEmptyKey(key [][]string) [][]string {
	if key == nil {
		return [][]string{}
	}
	return key
}
