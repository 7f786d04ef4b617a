// Command pactopt is the command-line front end for the optimizer: it
// compiles a SQL query or a built-in demo dataflow into an optimized
// execution plan and prints it, in the cobra+zerolog+viper style shared
// across the wider retrieval pack's cmd trees.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pactopt/internal/compiler"
	"pactopt/internal/config"
	"pactopt/internal/contract"
	"pactopt/internal/frontend"
	"pactopt/internal/lexer"
	"pactopt/internal/logging"
	"pactopt/internal/optimizer"
	"pactopt/internal/parser"
	"pactopt/internal/semantic"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pactopt",
		Short:         "Cost-based optimizer for PACT-style parallel dataflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "log format (json, console)")

	rootCmd.AddCommand(buildCompileCmd(), buildDemoCmd(), buildConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pactopt:", err)
		os.Exit(1)
	}
}

func setupLogging() (zerolog.Logger, error) {
	return logging.Setup("pactopt", logging.Options{
		Level:   flagLogLevel,
		Console: flagLogFormat != "json",
	})
}

func buildCompileCmd() *cobra.Command {
	var sql string
	var sqlFile string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a SELECT statement into an optimized plan and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := setupLogging()
			if err != nil {
				return err
			}
			if sqlFile != "" {
				raw, err := os.ReadFile(sqlFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", sqlFile, err)
				}
				sql = string(raw)
			}
			if sql == "" {
				return fmt.Errorf("one of --sql or --file is required")
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			catalog := demoCatalog()
			plan, err := planFromSQL(sql, catalog)
			if err != nil {
				return err
			}

			optCfg := optimizer.DefaultConfig()
			optCfg.DefaultParallelism = cfg.Optimizer.DefaultParallelism
			optCfg.MaxMachines = cfg.Optimizer.MaxMachines
			optCfg.MemoryFraction = cfg.Optimizer.MemoryFraction
			optCfg.ClusterTimeout = cfg.ClusterTimeout()
			optCfg.Logger = log

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			optimized, err := optimizer.Compile(ctx, plan, optCfg)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			fmt.Println(optimized.Explain())
			return nil
		},
	}
	cmd.Flags().StringVar(&sql, "sql", "", "SELECT statement to compile")
	cmd.Flags().StringVar(&sqlFile, "file", "", "path to a file containing the SELECT statement")
	return cmd
}

// buildDemoCmd wires the classic distributed word-count dataflow directly
// against the contract package, skipping the SQL front end entirely, so the
// optimizer can be exercised without a catalog.
func buildDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Compile the built-in word-count dataflow and print the optimized plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := setupLogging()
			if err != nil {
				return err
			}

			lines := contract.NewSource("lines", "text-corpus")
			words := contract.NewMap("split-words", lines)
			counts := contract.NewReduce("count-words", words, []int{0})
			sink := contract.NewSink("word-counts", counts)
			plan := contract.NewPlan("word-count", sink)

			optCfg := optimizer.DefaultConfig()
			optCfg.Logger = log

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			optimized, err := optimizer.Compile(ctx, plan, optCfg)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			fmt.Println(optimized.Explain())
			return nil
		},
	}
}

// buildConfigCmd prints the fully merged configuration (file + environment +
// defaults) as YAML, so an operator can see what pactopt actually resolved
// without hunting through config.yaml and the PACTOPT_ environment by hand.
func buildConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func planFromSQL(sql string, catalog compiler.CatalogManager) (*contract.Plan, error) {
	l := lexer.NewLexer(sql)
	p := parser.NewParser(l)
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse: %v", errs)
	}

	qc := compiler.NewQueryCompiler(catalog)
	compiled, err := qc.Compile(stmt)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	analyzer := semantic.NewSemanticAnalyzer(catalog)
	info, err := analyzer.Analyze(compiled)
	if err != nil {
		return nil, fmt.Errorf("semantic analysis: %w", err)
	}
	if !info.IsValid() {
		return nil, fmt.Errorf("query failed semantic validation: %v", info.Errors)
	}

	return frontend.Build(info, catalog)
}

// demoCatalog is a minimal in-memory catalog used by the compile subcommand
// until a real catalog source is wired in; it models the two tables the
// optimizer's own test fixtures and SPEC_FULL's join scenarios assume.
func demoCatalog() compiler.CatalogManager {
	catalog := compiler.NewMockCatalog()

	orders := compiler.NewTableMetadata("orders")
	orders.AddColumn(compiler.NewColumnMetadata("id", compiler.DataTypeInteger))
	orders.AddColumn(compiler.NewColumnMetadata("customer_id", compiler.DataTypeInteger))
	orders.AddColumn(compiler.NewColumnMetadata("total", compiler.DataTypeReal))
	catalog.AddTable(orders)

	customers := compiler.NewTableMetadata("customers")
	customers.AddColumn(compiler.NewColumnMetadata("id", compiler.DataTypeInteger))
	customers.AddColumn(compiler.NewColumnMetadata("name", compiler.DataTypeText))
	customers.AddColumn(compiler.NewColumnMetadata("region", compiler.DataTypeText))
	catalog.AddTable(customers)

	return catalog
}
