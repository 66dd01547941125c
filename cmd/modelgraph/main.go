package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tordrt/modelgraph"
	"github.com/tordrt/modelgraph/internal/config"
	"github.com/tordrt/modelgraph/internal/formatter"
	"github.com/tordrt/modelgraph/internal/loader"
	"github.com/tordrt/modelgraph/internal/schema"
)

// flagKeys maps flag names to the config keys they override
var flagKeys = map[string]string{
	"file":       config.KeyFile,
	"output":     config.KeyOutput,
	"output-dir": config.KeyOutputDir,
	"all-edges":  config.KeyAllEdges,
	"format":     config.KeyFormat,
	"debug":      config.KeyDebug,
}

type app struct {
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "modelgraph",
		Short:        "Inspect schema documents and draw entity-relationship graphs",
		Long:         `modelgraph reads a schema document (models, fields and relations, each with a UUID and source location), lists its models, prints single models, and writes Graphviz graphs of the whole schema or of one model's neighbourhood.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringP("file", "f", "", "Schema document (.json, .yaml or .msgpack)")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: .modelgraph.yaml in . or $HOME)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newEnumerateCmd(a),
		newWriteCmd(a),
		newGetCmd(a),
		newImportCmd(a),
	)
	return rootCmd
}

// setup resolves configuration for cmd and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	a.cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	if a.logger == nil {
		a.logger, err = newLogger(a.cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
	}
	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("file", a.cfg.File),
		zap.String("config", v.ConfigFileUsed()))
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// newLogger logs to stderr so stdout stays reserved for command output
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// load opens the configured schema document
func (a *app) load() (*schema.Schema, *schema.Index, error) {
	if err := a.cfg.RequireFile(); err != nil {
		return nil, nil, err
	}

	s, idx, err := modelgraph.Open(a.cfg.File)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Debug("schema loaded",
		zap.String("file", a.cfg.File),
		zap.Int("models", idx.Models()),
		zap.Int("fields", idx.Fields()),
		zap.Int("relations", len(s.Relations)))
	return s, idx, nil
}

// emit writes one finished blob through a buffered writer and flushes it.
// Failures are logged as warnings and returned.
func (a *app) emit(w io.Writer, target string, render func(io.Writer) error) error {
	out := bufio.NewWriter(w)
	err := render(out)
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		a.logger.Warn("failed to write output", zap.String("target", target), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

func newEnumerateCmd(a *app) *cobra.Command {
	var showUUID bool
	var model string

	cmd := &cobra.Command{
		Use:   "enumerate",
		Short: "List models and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, idx, err := a.load()
			if err != nil {
				return err
			}

			if model != "" {
				m, err := modelgraph.ResolveModel(idx, model)
				if err != nil {
					return err
				}
				s, _, err = schema.Extract(s, idx, m.UUID())
				if err != nil {
					return err
				}
			}

			return a.emit(cmd.OutOrStdout(), "stdout", func(w io.Writer) error {
				f := formatter.NewListFormatter(w)
				f.ShowUUID = showUUID
				return f.Format(s)
			})
		},
	}

	cmd.Flags().BoolVarP(&showUUID, "uuid", "u", false, "Prefix every line with its UUID")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Only list this model (object name or UUID)")
	return cmd
}

func newWriteCmd(a *app) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a Graphviz graph of the schema",
		Long: `Write a Graphviz digraph with one node per model and one edge per relation.

With --model only that model's node is drawn, together with the relations
starting or ending at it (all relations with --all-edges). With --output-dir
one graph per model is written, plus an _overview.txt.

Render with: dot -Kdot -Gdpi=300 -Tpng data.dot -odata.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, idx, err := a.load()
			if err != nil {
				return err
			}

			edges := formatter.EdgesTouchingFocus
			if a.cfg.AllEdges {
				edges = formatter.EdgesAll
			}

			if a.cfg.OutputDir != "" {
				if model != "" {
					return fmt.Errorf("cannot use both --model and --output-dir")
				}
				if err := formatter.NewMultiFileFormatter(a.cfg.OutputDir, edges).Format(s, idx); err != nil {
					a.logger.Warn("failed to write output", zap.String("target", a.cfg.OutputDir), zap.Error(err))
					return err
				}
				a.logger.Info("graphs written", zap.String("dir", a.cfg.OutputDir), zap.Int("models", idx.Models()))
				return nil
			}

			f := &formatter.DotFormatter{Edges: edges}
			if model != "" {
				m, err := modelgraph.ResolveModel(idx, model)
				if err != nil {
					return err
				}
				f.Focus = m.UUID()
			}

			graph, err := f.Render(s, idx)
			if err != nil {
				return err
			}
			render := func(w io.Writer) error {
				_, err := w.Write(graph)
				return err
			}

			if a.cfg.Output == "-" {
				return a.emit(cmd.OutOrStdout(), "stdout", render)
			}
			return a.writeFile(a.cfg.Output, render)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Focus model (object name or UUID)")
	cmd.Flags().StringP("output", "o", "data.dot", "Output file, - for stdout")
	cmd.Flags().StringP("output-dir", "d", "", "Write one graph per model into this directory")
	cmd.Flags().Bool("all-edges", false, "Keep relations not touching the focus model")
	return cmd
}

func (a *app) writeFile(path string, render func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			a.logger.Warn("failed to close output file", zap.String("path", path), zap.Error(cerr))
			if err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}
	}()

	if err := a.emit(file, path, render); err != nil {
		return err
	}
	a.logger.Info("graph written", zap.String("path", path))
	return nil
}

func newGetCmd(a *app) *cobra.Command {
	var model string
	var showMeta bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a single model",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, idx, err := a.load()
			if err != nil {
				return err
			}

			m, err := modelgraph.ResolveModel(idx, model)
			if err != nil {
				return err
			}

			return a.emit(cmd.OutOrStdout(), "stdout", func(w io.Writer) error {
				if a.cfg.Format == "markdown" {
					f := formatter.NewMarkdownFormatter(w)
					f.ShowMeta = showMeta
					return f.Format(m)
				}
				f := formatter.NewTextFormatter(w)
				f.ShowMeta = showMeta
				return f.Format(m)
			})
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to print (object name or UUID)")
	cmd.Flags().BoolVar(&showMeta, "show-meta", false, "Include uuid and source location")
	cmd.Flags().String("format", "text", "Output format: text or markdown")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		dbURL      string
		mysqlURL   string
		sqlitePath string
		output     string
		tables     string
		exclude    string
		schemaName string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build a schema document from a live database",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(dbURL, mysqlURL, sqlitePath)
			if err != nil {
				return err
			}

			opts := &modelgraph.Options{
				Tables:        parseTableList(tables),
				ExcludeTables: parseTableList(exclude),
				SchemaName:    schemaName,
			}

			s, idx, err := modelgraph.ImportSchema(context.Background(), url, opts)
			if err != nil {
				return err
			}
			a.logger.Info("schema imported",
				zap.Int("models", idx.Models()),
				zap.Int("fields", idx.Fields()),
				zap.Int("relations", len(s.Relations)))

			if output == "-" {
				return a.emit(cmd.OutOrStdout(), "stdout", func(w io.Writer) error {
					return loader.Encode(w, s, loader.FormatJSON)
				})
			}
			if err := modelgraph.Save(output, s); err != nil {
				a.logger.Warn("failed to write output", zap.String("target", output), zap.Error(err))
				return err
			}
			a.logger.Info("schema written", zap.String("path", output))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	cmd.Flags().StringVarP(&output, "out", "o", "schema.json", "Schema document to write (.json, .yaml or .msgpack), - for stdout")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Tables to leave out (comma-separated, optional)")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, DSN database for MySQL)")
	return cmd
}

// databaseURL turns exactly one of the connection flags into an import URL
func databaseURL(dbURL, mysqlURL, sqlitePath string) (string, error) {
	var urls []string
	if dbURL != "" {
		urls = append(urls, dbURL)
	}
	if mysqlURL != "" {
		urls = append(urls, "mysql://"+strings.TrimPrefix(mysqlURL, "mysql://"))
	}
	if sqlitePath != "" {
		urls = append(urls, "sqlite://"+sqlitePath)
	}

	switch len(urls) {
	case 0:
		return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	case 1:
		return urls[0], nil
	default:
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}
}

func parseTableList(tables string) []string {
	if tables == "" {
		return nil
	}
	list := strings.Split(tables, ",")
	for i, t := range list {
		list[i] = strings.TrimSpace(t)
	}
	return list
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}
