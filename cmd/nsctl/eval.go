package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newEvalCmd())
}

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <equation>",
		Short: "Evaluate an equation against the node",
		Long: `The eval command evaluates a parenthesised equation. Quoted names are
read from the node's registry.

Example:
  nsctl eval -d nodes/cubesat1 '("node_powgen" - "node_powuse")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadNode()
			if err != nil {
				return err
			}
			f, err := reg.EvaluateOnce(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.17g\n", f)
			return nil
		},
	}
}
