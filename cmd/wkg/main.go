package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/componentry/wkg/cmd/wkg/commands"
	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wkg",
	Short: "wkg - WebAssembly package tool",
	Long: `wkg - fetch WebAssembly packages from a registry.

Packages are identified as <namespace>:<name>, optionally pinned to a
version with @<version>. Fetched content is written as a raw component
binary (.wasm) or as decoded WIT interface text (.wit).

Examples:
  wkg get wasi:cli                    # Latest release, auto-detected format
  wkg get wasi:http@0.2.0 -o deps/    # Pinned version into a directory
  wkg get wasi:cli --format wit       # Force WIT text output`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.GetCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
