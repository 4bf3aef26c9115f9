// Package cmd wires the CLI commands together.
package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/singlow/harlequin-athena/adapter"
	"github.com/singlow/harlequin-athena/athena"
	"github.com/singlow/harlequin-athena/internal/config"
	"github.com/singlow/harlequin-athena/internal/flags"
)

// Cmd holds the parsed flag state shared by the root command and its
// subcommands.
type Cmd struct {
	appVersion string

	flagsAthena *flags.Athena
	flagsAWS    *flags.AWS

	flagConfig  string
	flagLimit   int
	flagVerbose bool
	flagVersion bool
}

// NewCmd builds the root command. The root runs a single query, given as an
// argument or on stdin, and writes the results as CSV.
func NewCmd(appVersion string) *cobra.Command {
	c := &Cmd{
		appVersion:  appVersion,
		flagsAthena: flags.NewAthena(),
		flagsAWS:    flags.NewAWS(),
	}

	rootCmd := &cobra.Command{
		Use:   "harlequin-athena [query]",
		Short: "Run SQL against Amazon Athena",
		Long: "Run SQL against Amazon Athena and print the results as CSV.\n" +
			"The query is given as an argument or piped on stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}

	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().AddFlagSet(c.flagsAthena.NewFlagSet())
	rootCmd.PersistentFlags().AddFlagSet(c.flagsAWS.NewFlagSet())
	rootCmd.PersistentFlags().StringVar(&c.flagConfig, "config",
		"",
		"A YAML config file to read connection options from.")
	rootCmd.PersistentFlags().BoolVar(&c.flagVerbose, "verbose",
		false,
		"Enable debug logging.")

	rootCmd.Flags().IntVar(&c.flagLimit, "limit",
		0,
		"The maximum number of rows to print (0 means no limit).")
	rootCmd.Flags().BoolVar(&c.flagVersion, "version",
		false,
		"Print the version and exit.")

	rootCmd.AddCommand(newCatalogCmd(c))

	return rootCmd
}

func (c *Cmd) run(cmd *cobra.Command, args []string) error {
	if c.flagVersion {
		fmt.Printf("version: %s\n", c.appVersion)
		return nil
	}

	query, err := c.readQuery(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if query == "" {
		return cmd.Help()
	}

	a, err := c.newAdapter()
	if err != nil {
		return err
	}

	conn, err := a.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	cursor, err := conn.Execute(cmd.Context(), query)
	if err != nil {
		return err
	}
	if c.flagLimit > 0 {
		cursor = cursor.SetLimit(c.flagLimit)
	}

	return writeCSV(cmd.OutOrStdout(), cursor)
}

func (c *Cmd) readQuery(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		// interactive terminal with no piped input
		return "", nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// newAdapter resolves the full option set. Precedence is flags, then
// environment, then the config file, then defaults.
func (c *Cmd) newAdapter() (*adapter.AthenaAdapter, error) {
	opts := adapter.Options{
		Region:             c.flagsAthena.Region,
		S3StagingDir:       c.flagsAthena.S3StagingDir,
		WorkGroup:          c.flagsAthena.WorkGroup,
		Schema:             c.flagsAthena.Schema,
		Catalog:            c.flagsAthena.Catalog,
		Profile:            c.flagsAWS.Profile,
		AWSAccessKeyID:     c.flagsAWS.AWSAccessKeyID,
		AWSSecretAccessKey: c.flagsAWS.AWSSecretAccessKey,
		AWSSessionToken:    c.flagsAWS.AWSSessionToken,
	}

	pollValue := c.flagsAthena.PollInterval
	if c.flagConfig != "" {
		f, err := config.Load(c.flagConfig)
		if err != nil {
			return nil, err
		}
		f.Apply(&opts)
		pollValue = f.PollIntervalValue(pollValue)
	}

	if pollValue != "" {
		d, err := athena.ParsePollInterval(pollValue)
		if err != nil {
			return nil, err
		}
		opts.PollInterval = d
	}

	return adapter.New(opts, adapter.WithLogger(c.newLogger())), nil
}

func (c *Cmd) newLogger() *slog.Logger {
	loggerOpt := &slog.HandlerOptions{}
	if c.flagVerbose {
		loggerOpt.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, loggerOpt))
}

func writeCSV(w io.Writer, cursor adapter.Cursor) error {
	rows, err := cursor.FetchAll()
	if err != nil {
		return err
	}

	columns := cursor.Columns()
	if len(columns) == 0 {
		// DDL and other statements without a result set
		return nil
	}

	writer := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
