package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tardy-sh/clove-lang/pkg/clove"
)

func newRunCmd() *cobra.Command {
	var inputPath string
	var explain bool

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run a query against a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]

			r := clove.NewRunner()
			r.EnvVar = os.LookupEnv
			if udfFile != "" {
				if err := loadUdfFile(udfFile, r); err != nil {
					return err
				}
			}

			if explain {
				q, err := clove.ParseString(src)
				if err != nil {
					return err
				}
				fmt.Print(clove.ExplainQuery(q))
				return nil
			}

			inputJSON, err := readInput(inputPath)
			if err != nil {
				return err
			}

			out, err := r.RunJSON(src, inputJSON)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, out, "", "  "); err != nil {
				// json.Indent only fails on input it cannot parse; fall back
				// to the raw encoding.
				fmt.Println(string(out))
				return nil
			}
			fmt.Println(pretty.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "-", "path to the input JSON document (\"-\" for stdin)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the parsed query's AST instead of evaluating it")

	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
