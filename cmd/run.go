// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/boxlang/heapdump"
	"github.com/luthersystems/boxlang/lang"
	"github.com/luthersystems/boxlang/lang/langlib"
	"github.com/luthersystems/boxlang/lang/x/gctrace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	runDump  string
	runTrace bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run program...",
	Short: "Run example programs",
	Long: `Run example programs from the program library (see "boxlang programs").
Each program runs on a fresh runtime and its value is printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configs, err := runtimeConfigs(viper.GetViper())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		var tp *sdktrace.TracerProvider
		if runTrace {
			tp = sdktrace.NewTracerProvider(
				sdktrace.WithSyncer(newSpanPrinter(os.Stderr)),
				sdktrace.WithSampler(sdktrace.AlwaysSample()),
			)
			otel.SetTracerProvider(tp)
			configs = append(configs, lang.WithObserver(gctrace.NewOpenTelemetryObserver(context.Background())))
		}
		code := runPrograms(os.Stdout, args, configs)
		if tp != nil {
			if err := tp.Shutdown(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		if code != 0 {
			os.Exit(code)
		}
	},
}

// runPrograms runs each named program in order and returns the process exit
// code.  It stops at the first program that fails.
func runPrograms(w io.Writer, names []string, configs []lang.Config) int {
	for _, name := range names {
		if !runProgram(w, name, configs) {
			return 1
		}
	}
	return 0
}

func runProgram(w io.Writer, name string, configs []lang.Config) bool {
	prog, err := langlib.Lookup(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	rt, err := lang.NewRuntime(configs...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	err = langlib.LoadLibrary(rt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	v, err := rt.Eval(prog.Expr)
	if err != nil {
		var lerr *lang.Error
		if errors.As(err, &lerr) {
			lerr.WriteTrace(os.Stderr) //nolint:errcheck // best-effort error display
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return false
	}
	fmt.Fprintf(w, "%s: %v\n", prog.Name, v)
	err = writeDump(w, rt.Store, runDump)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	return true
}

func writeDump(w io.Writer, s lang.Store, format string) error {
	switch format {
	case "", "none":
		return nil
	case "text":
		return heapdump.WriteText(w, heapdump.FromStore(s), 0)
	case "yaml":
		return heapdump.WriteYAML(w, heapdump.FromStore(s))
	}
	return fmt.Errorf("unknown dump format: %q", format)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("capacity", lang.DefaultCapacity, "Number of slots in the store")
	runCmd.Flags().String("store", lang.StrategyMarkSweep.String(), `Store strategy: "marksweep" or "nogc"`)
	runCmd.Flags().Int("max-stack", lang.DefaultMaxStackHeight, "Maximum call stack height (0 for no limit)")
	runCmd.Flags().Bool("gc-log", false, "Log a line for every collection cycle")
	runCmd.Flags().StringVar(&runDump, "dump", "none", `Print the store after each program: "none", "text" or "yaml"`)
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "Print a tracing span for every collection cycle")

	_ = viper.BindPFlag("capacity", runCmd.Flags().Lookup("capacity"))
	_ = viper.BindPFlag("store", runCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("max_stack", runCmd.Flags().Lookup("max-stack"))
	_ = viper.BindPFlag("gc_log", runCmd.Flags().Lookup("gc-log"))
}
