package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/skylift/internal/provision"
	"github.com/ajitpratap0/skylift/pkg/airbyte"
	"github.com/ajitpratap0/skylift/pkg/clients"
	"github.com/ajitpratap0/skylift/pkg/config"
	"github.com/ajitpratap0/skylift/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "skylift",
		Short: "Skylift - Airbyte pipeline provisioning tool",
		Long: `Skylift provisions a complete data-replication pipeline on Airbyte Cloud:
it creates and validates a source and a destination, discovers the source schema,
builds a filtered sync catalog, and creates the connection binding them.`,
	}

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Skylift v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Provision command
	var sourceFile, destinationFile, connectionFile string
	var logLevel string
	var timeout time.Duration

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a replication pipeline",
		Long: `Provision a replication pipeline from three YAML documents describing the
source connector, the destination connector, and the connection between them.
Document values may reference environment variables as ${VAR_NAME}.

Example:
  skylift provision --source configs/mssql_source.yaml \
    --destination configs/snowflake_destination.yaml \
    --connection configs/connection.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(sourceFile, destinationFile, connectionFile, logLevel, timeout)
		},
	}

	provisionCmd.Flags().StringVarP(&sourceFile, "source", "s", "", "Path to source YAML document (required)")
	provisionCmd.Flags().StringVarP(&destinationFile, "destination", "d", "", "Path to destination YAML document (required)")
	provisionCmd.Flags().StringVarP(&connectionFile, "connection", "c", "", "Path to connection YAML document (required)")
	_ = provisionCmd.MarkFlagRequired("source")
	_ = provisionCmd.MarkFlagRequired("destination")
	_ = provisionCmd.MarkFlagRequired("connection")
	provisionCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	provisionCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall provisioning timeout")

	root.AddCommand(provisionCmd)

	// Connection inspection command
	connectionCmd := &cobra.Command{
		Use:   "connection",
		Short: "Inspect provisioned connections",
	}
	connectionCmd.AddCommand(&cobra.Command{
		Use:   "get <connection-id>",
		Short: "Fetch a connection record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnectionGet(args[0])
		},
	})
	root.AddCommand(connectionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds the API client from environment configuration.
func newClient(env *config.Env, log *zap.Logger) *airbyte.Client {
	httpCfg := clients.DefaultHTTPConfig()
	httpCfg.RequestTimeout = env.RequestTimeout

	return airbyte.NewClient(airbyte.ClientConfig{
		BaseURL:     env.APIURL,
		APIToken:    env.APIToken,
		WorkspaceID: env.WorkspaceID,
		HTTP:        httpCfg,
	}, log)
}

// runProvision executes the full provisioning sequence.
func runProvision(sourceFile, destinationFile, connectionFile, logLevel string, timeout time.Duration) error {
	if err := logger.Init(logger.Config{Level: logLevel, Encoding: "console"}); err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	source, err := config.LoadSource(sourceFile)
	if err != nil {
		return fmt.Errorf("source configuration error: %w", err)
	}

	destination, err := config.LoadDestination(destinationFile)
	if err != nil {
		return fmt.Errorf("destination configuration error: %w", err)
	}

	connection, err := config.LoadConnection(connectionFile)
	if err != nil {
		return fmt.Errorf("connection configuration error: %w", err)
	}

	client := newClient(env, log)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	provisioner := provision.NewProvisioner(client, &provision.Config{
		Source:      source,
		Destination: destination,
		Connection:  connection,
	}, log)

	result, err := provisioner.Run(ctx)
	if err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}

	fmt.Println("Pipeline provisioned successfully!")
	fmt.Printf("  Source ID:      %s\n", result.SourceID)
	fmt.Printf("  Destination ID: %s\n", result.DestinationID)
	fmt.Printf("  Connection ID:  %s\n", result.ConnectionID)

	return nil
}

// runConnectionGet fetches one connection record and prints it as JSON.
func runConnectionGet(connectionID string) error {
	if err := logger.Init(logger.Config{Level: "warn", Encoding: "console"}); err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	log := logger.Get()

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	client := newClient(env, log)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), env.RequestTimeout)
	defer cancel()

	record, err := client.GetConnection(ctx, connectionID)
	if err != nil {
		return err
	}

	out, err := gojson.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode connection record: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
