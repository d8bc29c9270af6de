package main

import (
	"io"
	"log"
	"os"

	"github.com/ludo-technologies/flowstruct/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowstruct",
	Short: "Recover structured statements from control-flow graphs",
	Long: `flowstruct turns the basic-block control-flow graph of a compiled method
back into a tree of structured statements: if/else, while, do-while,
infinite loops, switch, try/catch and synchronized blocks.

Features:
  • Iterative region recognition with per-method budgets and timeouts
  • Irreducible regions reported as general statements
  • Text, JSON, YAML, Graphviz DOT and MessagePack reports
  • Persistent result cache keyed by graph content and options`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewStructureCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
}

// newLogger returns the trace logger of a command: stderr when --verbose
// is set on the root, silent otherwise
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "flowstruct: ", log.Ltime)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
