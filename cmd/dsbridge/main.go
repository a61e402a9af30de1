// dsbridge bridges OpenDNSSEC key events to a registry's reverse-DNS
// delegation API. The signer invokes it with a DNSKEY record on stdin when
// a Key-Signing Key rolls; dsbridge derives the DS fields, translates the
// reverse zone into its CIDR prefix, and submits or retracts the DS entry
// on the matching delegation record.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/dsbridge/internal/config"
	"gitlab.bluewillows.net/root/dsbridge/internal/dnskey"
	"gitlab.bluewillows.net/root/dsbridge/internal/rdns"
	"gitlab.bluewillows.net/root/dsbridge/internal/registry"
	"gitlab.bluewillows.net/root/dsbridge/pkg/httputil"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-30"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dsbridge <submit | retract>",
		Short: "Push DS records for reverse zones to the registry's delegation API",
		Long: `dsbridge takes a DNSKEY record on stdin, derives the DS record
(RFC 4034 keytag, SHA-256 digest), and submits it to or retracts it from
the registry's reverse-DNS delegation record for the matching prefix.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Submit the DS record for the DNSKEY on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(registry.ActionSubmit)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "retract",
		Short: "Retract the DS record for the DNSKEY on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(registry.ActionRetract)
		},
	})

	return root
}

func run(action registry.Action) error {
	// Load configuration and credentials first, before touching stdin or
	// the network.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	creds, err := config.LoadCredentials(cfg)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	key, err := dnskey.Parse(os.Stdin)
	if err != nil {
		return err
	}

	prefix, err := rdns.Prefix(key.Domain)
	if err != nil {
		printKeyDiagnostics(key)
		return err
	}

	logger.Info("trying registry delegation API",
		slog.String("version", Version),
		slog.String("go_version", runtime.Version()),
		slog.String("action", string(action)),
		slog.String("domain", key.Domain),
		slog.String("prefix", prefix),
		slog.Int("keytag", int(key.KeyTag)),
	)

	client := registry.NewClient(creds.Account, creds.APIKey,
		registry.WithAPIEndpoint(cfg.Endpoint),
		registry.WithLogger(logger),
		registry.WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
			Timeout: cfg.Timeout,
			Logger:  logger,
		})),
	)

	ctx := context.Background()

	var result *registry.Result
	switch action {
	case registry.ActionSubmit:
		result, err = client.Submit(ctx, prefix, key)
	case registry.ActionRetract:
		result, err = client.Retract(ctx, prefix, key)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		// Leave the operator everything needed for manual handling: the
		// server's error body and the key we derived.
		printErrorDiagnostics(err)
		printKeyDiagnostics(key)
		return fmt.Errorf("%s failed: %w", action, err)
	}

	if !result.NoOp && len(result.Response) > 0 {
		printJSON(result.Response)
	}
	return nil
}

// printKeyDiagnostics pretty-prints the parsed key record to stdout so a
// failed operation can be finished by hand.
func printKeyDiagnostics(key *dnskey.Record) {
	data, err := json.MarshalIndent(key, "", "    ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

// printErrorDiagnostics surfaces the registry's error body when there is one.
func printErrorDiagnostics(err error) {
	var httpErr *registry.HTTPError
	if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
		fmt.Println(httpErr.PrettyBody())
	}
}

// printJSON pretty-prints a raw JSON response body to stdout.
func printJSON(data []byte) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Println(string(data))
		return
	}
	pretty, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(string(pretty))
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
