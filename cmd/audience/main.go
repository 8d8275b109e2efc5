package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/audience/audience/audience"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	dialect    string
	lenient    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "audience",
	Short: "Validate and compile audience filter expressions",
	Long: `audience compiles boolean audience filters into a parameterized SQL
WHERE clause and a search engine filter string.

Input is a serialized expression (JSON), a simple-mode filter (--simple), or
the infix text syntax (--text), read from a file or stdin ("-").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dialect != "" {
			if _, ok := relational.DialectByName(dialect); !ok {
				return fmt.Errorf("unknown dialect %q", dialect)
			}
			cfg.Dialect = dialect
		}
		if lenient {
			cfg.Strict = false
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./audience.yaml or $AUDIENCE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", "relational dialect: postgres|sqlite")
	rootCmd.PersistentFlags().BoolVar(&lenient, "lenient", false, "compile even when validation fails")

	rootCmd.AddCommand(fieldsCmd, validateCmd, compileCmd, adaptCmd, queryCmd)
}

// newCompiler builds a compiler from the loaded configuration.
func newCompiler() (*audience.Compiler, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, audience.Wrap(audience.ErrRegistry, "load catalog", err)
	}
	opts := []audience.Option{
		audience.WithRegistry(reg),
		audience.WithDialect(cfg.RelationalDialect()),
		audience.WithLogger(logger),
	}
	if !cfg.Strict {
		opts = append(opts, audience.WithLenient())
	}
	return audience.NewCompiler(opts...), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
