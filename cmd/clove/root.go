package main

import (
	"github.com/spf13/cobra"
)

// udfFile is the path to an optional UDF preload document, available to
// every subcommand.
var udfFile string

// NewRootCmd creates the root command for the clove CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clove",
		Short: "clove - a pipeline query language for JSON documents",
		Long: `clove runs pipeline queries over a JSON document: a chain of
filter, transform, delete, bind, and output stages threaded through
a single value.`,
	}

	cmd.PersistentFlags().StringVar(&udfFile, "udf-file", "", "path to a YAML file preloading UDF definitions")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}
