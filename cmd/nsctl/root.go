package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
	"github.com/hsfl/cosmos-core-sub000/internal/node"
)

var (
	// Global flags
	nodeDir string
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "nsctl",
	Short: "Inspect and edit a node namespace",
	Long: `nsctl loads a node description directory (node.ini, pieces.ini, ...)
into a namespace registry and reads, writes or evaluates its entries.
Changes are written back to the directory only with --save.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeDir, "dir", "d", ".", "Node description directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadNode builds a registry from the node directory.
func loadNode() (*ns.Registry, error) {
	reg := ns.New()
	if _, _, err := node.LoadDir(reg, nodeDir); err != nil {
		return nil, fmt.Errorf("loading %s: %w", nodeDir, err)
	}
	return reg, nil
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
