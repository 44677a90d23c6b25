package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vespera-vm/vespera/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "vespera",
	Short: "Front-end lowering pass for a Python JIT",
	Long: `vespera lowers a parsed Python function, lambda, class, or module body
into a control-flow graph of basic blocks: structured control flow (if/while/
for/try/with/break/continue/return, short-circuit booleans, chained
comparisons, comprehensions) is decomposed into blocks joined by jumps and
branches, and every statement that can raise while a handler is active is
rewritten into a two-successor invoke.`,
	Version: version.Short(),
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewCFGCmd())
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
