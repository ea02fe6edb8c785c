package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sadopc/schemapatch/internal/adapter"
	"github.com/sadopc/schemapatch/internal/audit"
	"github.com/sadopc/schemapatch/internal/catalog"
	"github.com/sadopc/schemapatch/internal/config"
	"github.com/sadopc/schemapatch/internal/history"
	"github.com/sadopc/schemapatch/internal/report"
	"github.com/sadopc/schemapatch/internal/runner"
	"github.com/sadopc/schemapatch/internal/schema"
	"github.com/sadopc/schemapatch/internal/ui/confirm"

	// Register database adapters
	_ "github.com/sadopc/schemapatch/internal/adapter/mysql"
	_ "github.com/sadopc/schemapatch/internal/adapter/postgres"
	_ "github.com/sadopc/schemapatch/internal/adapter/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errMutationFailed = errors.New("one or more mutations failed")

type rootFlags struct {
	adapter    string
	host       string
	port       int
	user       string
	password   string
	database   string
	file       string
	dsn        string
	connection string
	configPath string

	schema string
	table  string

	dryRun          bool
	continueOnError bool
	yes             bool
	verbose         bool
}

func main() {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "schemapatch",
		Short: "Inspect and patch relational schemas",
		Long: `schemapatch runs small, ordered sets of schema statements against
MySQL, PostgreSQL, or SQLite: inspect a table's constraint metadata, drop a
named foreign key, or widen a bounded column to an unbounded text type.

Statements run strictly in order, each as its own atomic unit. There is no
cross-statement transaction and no automatic rollback: a constraint that has
been dropped stays dropped even if a later statement fails.

Examples:
  schemapatch inspect -s new_bbc_db -t section_groups --dsn mysql://root@localhost/new_bbc_db
  schemapatch drop-constraint -s new_bbc_db -t section_groups --constraint section_groups_ibfk_2 --dry-run
  schemapatch widen-column -s new_bbc_db -t users --column profile_picture_url`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.adapter, "adapter", "a", "", "Database adapter (mysql, postgres, sqlite)")
	pf.StringVarP(&flags.host, "host", "H", "localhost", "Database host")
	pf.IntVarP(&flags.port, "port", "p", 0, "Database port")
	pf.StringVarP(&flags.user, "user", "u", "", "Database user")
	pf.StringVarP(&flags.password, "password", "P", "", "Database password")
	pf.StringVarP(&flags.database, "database", "d", "", "Database name")
	pf.StringVarP(&flags.file, "file", "f", "", "Database file (for SQLite)")
	pf.StringVar(&flags.dsn, "dsn", "", "Connection string (overrides individual flags)")
	pf.StringVarP(&flags.connection, "connection", "C", "", "Saved connection name from config")
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path")
	pf.StringVarP(&flags.schema, "schema", "s", "", "Target schema name")
	pf.StringVarP(&flags.table, "table", "t", "", "Target table name")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Execute diagnostics only; print mutation SQL without running it")
	pf.BoolVar(&flags.continueOnError, "continue-on-error", false, "Keep running after a mutation fails")
	pf.BoolVarP(&flags.yes, "yes", "y", false, "Skip the confirmation prompt before mutations")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	var constraintFlag string
	dropCmd := &cobra.Command{
		Use:   "drop-constraint",
		Short: "Drop a named foreign key constraint, then re-inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(flags, "drop-constraint", func(b catalog.Builder, t *catalog.Target) ([]catalog.Statement, error) {
				t.Constraint = constraintFlag
				return b.DropForeignKey(*t)
			})
		},
	}
	dropCmd.Flags().StringVar(&constraintFlag, "constraint", "", "Foreign key constraint name (required)")
	_ = dropCmd.MarkFlagRequired("constraint")

	var columnFlag, typeFlag string
	widenCmd := &cobra.Command{
		Use:   "widen-column",
		Short: "Change a column to an unbounded text type, then describe the table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(flags, "widen-column", func(b catalog.Builder, t *catalog.Target) ([]catalog.Statement, error) {
				t.Column = columnFlag
				t.ColumnType = typeFlag
				return b.WidenColumn(*t)
			})
		},
	}
	widenCmd.Flags().StringVar(&columnFlag, "column", "", "Column name (required)")
	widenCmd.Flags().StringVar(&typeFlag, "type", "TEXT", "Target column type")
	_ = widenCmd.MarkFlagRequired("column")

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "List constraint metadata for a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(flags, "inspect", func(b catalog.Builder, t *catalog.Target) ([]catalog.Statement, error) {
				return b.InspectConstraints(*t)
			})
		},
	}

	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(historyLimit)
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("schemapatch %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Println("\nSupported adapters:")
			for name := range adapter.Registry {
				fmt.Printf("  - %s\n", name)
			}
		},
	}

	rootCmd.AddCommand(inspectCmd, dropCmd, widenCmd, historyCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errMutationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runAction is the shared pipeline: load config, connect, build the
// statement group, confirm, run, record, report.
func runAction(flags *rootFlags, action string, build func(catalog.Builder, *catalog.Target) ([]catalog.Statement, error)) error {
	cfg := loadConfig(flags.configPath)
	log := newLogger(flags.verbose)

	// A .env next to the working directory may carry the DSN.
	_ = godotenv.Load()

	adapterName, dsn, err := resolveConnection(flags, cfg)
	if err != nil {
		return err
	}

	a, ok := adapter.Registry[adapterName]
	if !ok {
		return fmt.Errorf("unknown adapter: %s (available: %s)", adapterName, availableAdapters())
	}

	builder, err := catalog.For(adapterName)
	if err != nil {
		return err
	}

	target := catalog.Target{Schema: flags.schema, Table: flags.table}
	if target.Schema == "" {
		target.Schema = flags.database
	}

	stmts, err := build(builder, &target)
	if err != nil {
		return err
	}

	opts := runner.DefaultOptions()
	opts.StopOnMutationError = !flags.continueOnError && cfg.Runner.StopOnMutationError
	opts.DryRun = flags.dryRun || cfg.Runner.DryRun

	if !opts.DryRun && !flags.yes {
		if ok, err := confirmMutations(stmts); err != nil {
			return err
		} else if !ok {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	ctx := context.Background()

	log.Debug().Str("adapter", adapterName).Str("dsn", audit.SanitizeDSN(dsn)).Msg("connecting")
	conn, err := a.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	results, err := runner.Run(ctx, conn, stmts, opts, log)
	if err != nil {
		return err
	}

	record(cfg, action, conn, dsn, results, log)

	report.New(os.Stdout).Write(results)
	writeSummary(os.Stdout, target, results)

	if runner.AnyMutationFailed(results) {
		return errMutationFailed
	}
	return nil
}

// writeSummary decodes the diagnostic row sets into typed metadata and
// prints a short conclusion below the report: the constraint counts for an
// inspection, whether the dropped constraint is really gone, and the column's
// post-change type after a widen.
func writeSummary(w io.Writer, target catalog.Target, results []runner.Result) {
	for _, res := range results {
		if res.Err != nil || res.Skipped || res.Query == nil || !res.Query.IsSelect {
			continue
		}
		headers := columnNames(res.Query.Columns)

		switch res.Statement.Name {
		case "inspect-key-column-usage":
			descs := schema.ConstraintsFromRows(headers, res.Query.Rows)
			if len(descs) == 0 {
				continue
			}
			fks := schema.ForeignKeys(descs)
			fmt.Fprintf(w, "\n%s: %d constraint row(s), %d foreign key(s)\n",
				target.Table, len(descs), len(fks))

		case "verify-constraint-removed":
			remaining := false
			for _, d := range schema.ConstraintsFromRows(headers, res.Query.Rows) {
				if d.ConstraintName == target.Constraint {
					remaining = true
					break
				}
			}
			if remaining {
				fmt.Fprintf(w, "\nWarning: constraint %s is still present on %s\n",
					target.Constraint, target.Table)
			} else {
				fmt.Fprintf(w, "\nConstraint %s is no longer present on %s\n",
					target.Constraint, target.Table)
			}

		case "describe-table":
			for _, c := range schema.ColumnsFromRows(headers, res.Query.Rows) {
				if c.Name == target.Column {
					fmt.Fprintf(w, "\nColumn %s.%s is now %s\n", target.Table, c.Name, c.Type)
					break
				}
			}
		}
	}
}

func columnNames(cols []adapter.ColumnMeta) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// confirmMutations prompts before any mutation runs. Statement groups with
// no mutations (inspect) never prompt.
func confirmMutations(stmts []catalog.Statement) (bool, error) {
	var mutations []string
	for _, s := range stmts {
		if s.Kind == catalog.Mutation {
			mutations = append(mutations, "  "+strings.TrimSpace(s.SQL))
		}
	}
	if len(mutations) == 0 {
		return true, nil
	}

	body := fmt.Sprintf("This will permanently alter the schema. There is no rollback.\n\n%s\n",
		strings.Join(mutations, "\n"))
	return confirm.Ask("About to execute mutating statements", body)
}

// record appends executed statements to the audit log and run history.
func record(cfg *config.Config, action string, conn adapter.Connection, dsn string, results []runner.Result, log zerolog.Logger) {
	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		path := cfg.Audit.Path
		if path == "" {
			if dir, err := config.ConfigDir(); err == nil {
				path = dir + "/audit.jsonl"
			}
		}
		if path != "" {
			var err error
			auditLog, err = audit.New(path, cfg.Audit.MaxSizeMB)
			if err != nil {
				log.Warn().Err(err).Msg("could not open audit log")
			}
		}
	}
	defer auditLog.Close()

	var hist *history.History
	if cfg.History.Enabled {
		var err error
		hist, err = history.New()
		if err != nil {
			log.Warn().Err(err).Msg("could not open run history")
		}
	}
	if hist != nil {
		defer hist.Close()
	}

	sanitized := audit.SanitizeDSN(dsn)
	for _, res := range results {
		var rowCount int64 = -1
		if res.Query != nil {
			rowCount = res.Query.RowCount
		}
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}

		auditLog.Log(audit.Entry{
			Timestamp:    time.Now(),
			Statement:    res.Statement.Name,
			SQL:          res.Statement.SQL,
			Kind:         res.Statement.Kind.String(),
			Adapter:      conn.AdapterName(),
			DatabaseName: conn.DatabaseName(),
			DurationMS:   res.Duration.Milliseconds(),
			RowCount:     rowCount,
			IsError:      res.Err != nil,
			Error:        errText,
			DryRun:       res.Skipped,
			DSN:          sanitized,
		})

		if hist != nil {
			if err := hist.Add(history.Entry{
				Action:       action,
				Statement:    res.Statement.Name,
				Kind:         res.Statement.Kind.String(),
				Adapter:      conn.AdapterName(),
				DatabaseName: conn.DatabaseName(),
				DurationMS:   res.Duration.Milliseconds(),
				RowCount:     rowCount,
				IsError:      res.Err != nil,
				Error:        errText,
			}); err != nil {
				log.Warn().Err(err).Msg("could not record run history")
			}
		}
	}
}

func showHistory(limit int) error {
	hist, err := history.New()
	if err != nil {
		return err
	}
	defer hist.Close()

	entries, err := hist.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "ACTION", "STATEMENT", "DATABASE", "ROWS", "STATUS")
	for _, e := range entries {
		status := "ok"
		if e.IsError {
			status = "error: " + e.Error
		}
		t.Row(
			e.ExecutedAt.Format(time.DateTime),
			e.Action,
			e.Statement,
			e.DatabaseName,
			fmt.Sprintf("%d", e.RowCount),
			status,
		)
	}
	fmt.Println(t.Render())
	return nil
}

func loadConfig(path string) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	return cfg
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// resolveConnection determines the adapter name and DSN from, in order of
// precedence: --dsn, a saved connection, individual flags, the environment
// (SCHEMAPATCH_DSN or DATABASE_URL).
func resolveConnection(flags *rootFlags, cfg *config.Config) (adapterName, dsn string, err error) {
	adapterName = flags.adapter

	switch {
	case flags.dsn != "":
		dsn = flags.dsn

	case flags.connection != "":
		sc, ok := cfg.Connection(flags.connection)
		if !ok {
			return "", "", fmt.Errorf("no saved connection named %q", flags.connection)
		}
		dsn = sc.BuildDSN()
		if adapterName == "" {
			adapterName = sc.Adapter
		}

	case flags.user != "" || flags.database != "" || flags.file != "":
		if adapterName == "" {
			adapterName = cfg.Adapter
		}
		dsn = buildDSN(adapterName, flags.host, flags.port, flags.user, flags.password, flags.database, flags.file)

	default:
		for _, key := range []string{"SCHEMAPATCH_DSN", "DATABASE_URL"} {
			if v := os.Getenv(key); v != "" {
				dsn = v
				break
			}
		}
	}

	if dsn == "" {
		return "", "", errors.New("no connection configured: pass --dsn, connection flags, or set SCHEMAPATCH_DSN")
	}

	if adapterName == "" {
		adapterName = detectAdapter(dsn)
	}
	if adapterName == "" {
		adapterName = cfg.Adapter
	}
	if adapterName == "" {
		return "", "", errors.New("could not determine adapter: pass --adapter")
	}
	return adapterName, dsn, nil
}

func detectAdapter(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "file:"):
		return "sqlite"
	case strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	case strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.Contains(lower, "dbname="):
		return "postgres"
	}
	return ""
}

func buildDSN(adapterName, host string, port int, user, password, database, file string) string {
	switch adapterName {
	case "postgres":
		u := &url.URL{
			Scheme: "postgres",
			Host:   host,
		}
		if user != "" {
			if password != "" {
				u.User = url.UserPassword(user, password)
			} else {
				u.User = url.User(user)
			}
		}
		if port > 0 {
			u.Host = fmt.Sprintf("%s:%d", host, port)
		}
		if database != "" {
			u.Path = "/" + database
		}
		return u.String()

	case "mysql":
		// go-sql-driver format: user:pass@tcp(host:port)/db
		dsn := ""
		if user != "" {
			dsn += user
			if password != "" {
				dsn += ":" + url.PathEscape(password)
			}
			dsn += "@"
		}
		p := port
		if p == 0 {
			p = 3306
		}
		// The driver's DSN grammar requires the slash even with no
		// default schema.
		dsn += fmt.Sprintf("tcp(%s:%d)/%s", host, p, database)
		return dsn

	case "sqlite":
		if file != "" {
			return file
		}
		if database != "" {
			return database
		}
		return ":memory:"
	}
	return ""
}

func availableAdapters() string {
	var names []string
	for name := range adapter.Registry {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
