package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newNamesCmd(), newDumpCmd())
}

func newNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names [pattern]",
		Short: "List entry names",
		Long: `The names command lists the entries whose names match a glob pattern
(default every entry), one per line. With --json each entry is described by
type, unit, group and enabled flag.

Example:
  nsctl names -d nodes/cubesat1 'device_*_temp_*'
  nsctl names -d nodes/cubesat1 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNames(cmd, patternArg(args))
		},
	}
}

func runNames(cmd *cobra.Command, pattern string) error {
	reg, err := loadNode()
	if err != nil {
		return err
	}
	hs, err := reg.Match(pattern)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		infos := make([]any, 0, len(hs))
		for _, h := range hs {
			info, err := reg.Describe(h)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}
		return printJSON(out, infos)
	}
	for _, h := range hs {
		e, err := reg.Entry(h)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, e.Name)
	}
	return nil
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [pattern]",
		Short: "Print entries as wire text",
		Long: `The dump command prints the entries whose names match a glob pattern
(default every entry) in wire form, one {"name":value} object per line.

Example:
  nsctl dump -d nodes/cubesat1 'node_*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, patternArg(args))
		},
	}
}

func runDump(cmd *cobra.Command, pattern string) error {
	reg, err := loadNode()
	if err != nil {
		return err
	}
	hs, err := reg.Match(pattern)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, h := range hs {
		text, err := reg.Serialize(h)
		if err != nil {
			// Entries without storage are left out, as in a heartbeat.
			continue
		}
		fmt.Fprintln(out, text)
	}
	return nil
}

func patternArg(args []string) string {
	if len(args) == 0 {
		return "*"
	}
	return args[0]
}
