// Command aarectl is the Cobra CLI collaborator described in
// SPEC_FULL.md §2, analogous to cognicore/korel's cmd/chat-cli: it
// exposes verify, ontologies list/get, and serve as subcommands over
// the same pkg/aare core the HTTP server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aare-ai/aarecore/internal/config"
	"github.com/aare-ai/aarecore/internal/httpapi"
	"github.com/aare-ai/aarecore/pkg/aare"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aarectl",
	Short: "aarecore - SMT-backed verification of LLM output against declarative ontologies",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to aarecore config YAML")
	rootCmd.AddCommand(verifyCmd, ontologiesCmd, serveCmd)
	ontologiesCmd.AddCommand(ontologiesListCmd, ontologiesGetCmd, ontologiesReloadCmd)
}

func loadCore() (config.Config, *aare.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	var registry ontology.Registry
	if cfg.SQLiteCachePath != "" {
		registry, err = ontology.NewSQLiteCachedRegistry(context.Background(), cfg.OntologyDir, cfg.SQLiteCachePath)
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("open sqlite ontology cache: %w", err)
		}
	} else {
		registry = ontology.NewRegistry(cfg.OntologyDir)
	}

	return cfg, aare.NewCore(registry, cfg.SolverTimeoutMS), nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify text (from a file or stdin) against one ontology",
	RunE: func(cmd *cobra.Command, args []string) error {
		ontologyName, _ := cmd.Flags().GetString("ontology")
		inputPath, _ := cmd.Flags().GetString("input")
		if ontologyName == "" {
			return fmt.Errorf("--ontology is required")
		}

		var text []byte
		var err error
		if inputPath == "" || inputPath == "-" {
			text, err = io.ReadAll(os.Stdin)
		} else {
			text, err = os.ReadFile(inputPath)
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		_, core, err := loadCore()
		if err != nil {
			return err
		}

		report, err := core.Verify(cmd.Context(), aare.Request{LLMOutput: string(text), Ontology: ontologyName})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	verifyCmd.Flags().String("ontology", "", "ontology name to verify against")
	verifyCmd.Flags().String("input", "-", "path to the text file to verify, or - for stdin")
}

var ontologiesCmd = &cobra.Command{
	Use:   "ontologies",
	Short: "Inspect the ontology registry",
}

var ontologiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available ontologies",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, core, err := loadCore()
		if err != nil {
			return err
		}
		metas, err := core.ListOntologies()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	},
}

var ontologiesGetCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Print one ontology's validated document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, core, err := loadCore()
		if err != nil {
			return err
		}
		doc, err := core.GetOntology(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

var ontologiesReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Invalidate and rebuild the ontology registry cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, core, err := loadCore()
		if err != nil {
			return err
		}
		return core.Registry.Reload()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP verification server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, core, err := loadCore()
		if err != nil {
			return err
		}

		if cfg.WatchOntologies {
			watcher, err := ontology.NewWatcher(core.Registry, cfg.OntologyDir, 0, logger)
			if err != nil {
				logger.Warn("ontology watcher disabled", zap.Error(err))
			} else {
				stop := make(chan struct{})
				go watcher.Run(stop)
				defer close(stop)
				defer watcher.Close()
			}
		}

		server := httpapi.New(core, cfg.CORSOrigins, logger)
		addr := fmt.Sprintf(":%d", cfg.Port)
		httpServer := &http.Server{Addr: addr, Handler: server.Mux()}

		go func() {
			logger.Info("aarecore listening", zap.String("addr", addr), zap.Bool("debug", cfg.Debug))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("http server failed", zap.Error(err))
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		return httpServer.Shutdown(context.Background())
	},
}
