package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "relgraph",
		Short: "Project relational rows into a styled node-link graph",
		Long: `relgraph

Turns the rows of a MySQL database, or a generated mock dataset, into a
graph: rows become nodes sized and colored by a mapping document, foreign
key style joins become edges.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	rootCmd.Flags().StringVarP(&opts.host, "host", "H", "", "MySQL host (default: localhost)")
	rootCmd.Flags().StringVarP(&opts.user, "user", "u", "", "MySQL user (default: root)")
	rootCmd.Flags().StringVarP(&opts.password, "password", "p", "", "MySQL password")
	rootCmd.Flags().StringVarP(&opts.database, "database", "d", "", "MySQL database name")
	rootCmd.Flags().StringVarP(&opts.port, "port", "P", "", "MySQL port (default: 3306)")

	rootCmd.Flags().BoolVar(&opts.mock, "mock", false, "Use a generated dataset instead of a database")
	rootCmd.Flags().StringVarP(&opts.schemaFile, "schema-file", "s", "", "YAML schema describing the mock dataset")
	rootCmd.Flags().IntVarP(&opts.records, "records", "r", 10, "Number of mock rows per table")
	rootCmd.Flags().Int64Var(&opts.seed, "seed", 1, "Seed for mock data")

	rootCmd.Flags().StringVarP(&opts.mappingFile, "mapping", "m", "", "Mapping document (.yaml or .json)")
	rootCmd.Flags().BoolVar(&opts.suggest, "suggest", false, "Derive the mapping from the schema")
	rootCmd.Flags().StringVar(&opts.saveMapping, "save-mapping", "", "Write the mapping that was used to this file")
	rootCmd.Flags().StringVarP(&opts.graphID, "graph", "g", "", "Graph id whose mapping is kept in the mapping directory")
	rootCmd.Flags().StringVar(&opts.mappingDir, "mapping-dir", ".relgraph", "Directory holding saved mappings by graph id")

	rootCmd.Flags().StringVarP(&opts.format, "format", "f", "summary", "Output format (summary, json, dot, table)")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write output to a file instead of stdout")
	rootCmd.Flags().StringVar(&opts.selectID, "select", "", "Show the detail panel of a node id")
	rootCmd.Flags().IntVar(&opts.limit, "limit", 0, "Rows per table (default: RELGRAPH_ROW_LIMIT or 500)")

	rootCmd.Flags().BoolVarP(&opts.analyzeOnly, "analyze-only", "a", false, "Only print the schema analysis")
	rootCmd.Flags().StringVarP(&opts.envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&opts.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
