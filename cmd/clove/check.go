package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tardy-sh/clove-lang/pkg/clove"
)

func newCheckCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "check <query>",
		Short: "Evaluate a query and report the truthiness of its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputJSON, err := readInput(inputPath)
			if err != nil {
				return err
			}
			root, err := clove.FromJSON(inputJSON)
			if err != nil {
				return err
			}

			ok, diag := clove.Check(args[0], root, os.LookupEnv)
			fmt.Println(ok)
			if diag != "" {
				fmt.Fprintln(os.Stderr, diag)
			}
			if !ok && diag != "" {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "-", "path to the input JSON document (\"-\" for stdin)")

	return cmd
}
