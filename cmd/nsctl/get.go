package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getUnit string

func init() {
	cmd := newGetCmd()
	cmd.Flags().StringVarP(&getUnit, "unit", "u", "", "Convert a numeric value to this unit (e.g. C, km, deg)")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Get one entry",
		Long: `The get command prints one entry in wire form. With --unit the entry's
numeric value is printed converted to an alternate unit of its unit row.

Example:
  nsctl get -d nodes/cubesat1 node_powgen
  nsctl get -d nodes/cubesat1 device_cpu_temp_000 --unit C`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0])
		},
	}
}

func runGet(cmd *cobra.Command, name string) error {
	reg, err := loadNode()
	if err != nil {
		return err
	}
	h, err := reg.Lookup(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if getUnit != "" {
		f, err := reg.GetDoubleIn(h, getUnit)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(out, map[string]any{"name": name, "value": f, "unit": getUnit})
		}
		fmt.Fprintf(out, "%g %s\n", f, getUnit)
		return nil
	}

	text, err := reg.Serialize(h)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}
