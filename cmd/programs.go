// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/boxlang/lang/langlib"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var programsVerbose bool

var programsCmd = &cobra.Command{
	Use:   "programs",
	Short: "List the example programs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listPrograms(os.Stdout, programsVerbose)
	},
}

func listPrograms(w io.Writer, verbose bool) {
	for _, prog := range langlib.Catalog() {
		fmt.Fprintf(w, "%-18s %s\n", prog.Name, prog.Doc)
		if verbose {
			fmt.Fprintln(w, indent.String(wordwrap.String(prog.Expr.String(), 68), 4))
		}
	}
}

func init() {
	rootCmd.AddCommand(programsCmd)

	programsCmd.Flags().BoolVarP(&programsVerbose, "verbose", "v", false, "Print the expression of each program")
}
