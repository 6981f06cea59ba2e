package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
	"github.com/hsfl/cosmos-core-sub000/internal/node"
)

var (
	setSave   bool
	aliasSave bool
)

func init() {
	set := newSetCmd()
	set.Flags().BoolVar(&setSave, "save", false, "Write the changed registry back to the node directory")
	alias := newAliasCmd()
	alias.Flags().BoolVar(&aliasSave, "save", false, "Write the alias to the node directory")
	rootCmd.AddCommand(set, alias)
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [wire-text]",
		Short: "Apply wire text to the node",
		Long: `The set command parses {"name":value} objects into the registry and
reports how many fields were written. Without an argument the text is read
from standard input. Unknown names and malformed values are skipped.

Example:
  nsctl set -d nodes/cubesat1 '{"node_powgen":5.5}' --save
  cat update.json | nsctl set -d nodes/cubesat1 --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textArg(cmd, args)
			if err != nil {
				return err
			}
			return runSet(cmd, text)
		},
	}
}

func runSet(cmd *cobra.Command, text string) error {
	reg, err := loadNode()
	if err != nil {
		return err
	}
	st, err := reg.ParseWithStats(text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(out, st); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "matched %d, skipped %d\n", st.Matched, st.Skipped)
		if len(st.Unknown) > 0 {
			fmt.Fprintf(out, "unknown: %s\n", strings.Join(st.Unknown, ", "))
		}
	}

	if !setSave {
		return nil
	}
	return save(reg)
}

func newAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <name> <target>",
		Short: "Add an alias or equation entry",
		Long: `The alias command adds name as an alias of an existing entry, or as an
equation when target starts with '('. The resulting value is printed.

Example:
  nsctl alias -d nodes/cubesat1 mass piece_mass_000 --save
  nsctl alias -d nodes/cubesat1 net_power '("node_powgen" - "node_powuse")'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlias(cmd, args[0], args[1])
		},
	}
}

func runAlias(cmd *cobra.Command, name, target string) error {
	reg, err := loadNode()
	if err != nil {
		return err
	}
	if _, err := reg.AddAlias(name, target); err != nil {
		return err
	}
	h, err := reg.Lookup(name)
	if err != nil {
		return err
	}
	text, err := reg.Serialize(h)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if !aliasSave {
		return nil
	}
	return save(reg)
}

func save(reg *ns.Registry) error {
	if err := node.Save(reg, nodeDir); err != nil {
		return fmt.Errorf("saving %s: %w", nodeDir, err)
	}
	return nil
}

// textArg returns the single argument, or standard input when there is none.
func textArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(b), nil
}
