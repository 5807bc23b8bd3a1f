package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unworried/flip/compiler"
	"github.com/unworried/flip/diagnostics"
	"github.com/unworried/flip/loader"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flipc",
		Short: "flip language compiler",
	}

	var output string
	var offset uint32
	var noColor bool

	buildCmd := &cobra.Command{
		Use:   "build <input>",
		Short: "Compile a source file to bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open: %w", err)
			}

			instructions, res, err := compiler.Compile(string(src), offset)
			if err != nil {
				reportDiagnostics(res, !noColor)
				return err
			}
			reportDiagnostics(res, !noColor) // surviving warnings

			out := compiler.Encode(instructions)
			if output == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	buildCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	buildCmd.Flags().Uint32VarP(&offset, "offset", "x", 0, "code offset in bytes")
	buildCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	checkCmd := &cobra.Command{
		Use:   "check <input>",
		Short: "Run the analysis passes without emitting bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open: %w", err)
			}

			res := compiler.Check(string(src))
			reportDiagnostics(res, !noColor)
			if res.Diagnostics.HasErrors() {
				return fmt.Errorf("check failed")
			}
			return nil
		},
	}
	checkCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	var maxSteps int
	runCmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Compile and immediately execute a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open: %w", err)
			}

			instructions, res, err := compiler.Compile(string(src), 0)
			if err != nil {
				reportDiagnostics(res, !noColor)
				return err
			}

			machine, err := loader.Load(compiler.Encode(instructions))
			if err != nil {
				return err
			}
			if err := machine.Run(maxSteps); err != nil {
				return err
			}
			fmt.Println(machine.State())
			return nil
		},
	}
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 1000000, "step limit before aborting")
	runCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	rootCmd.AddCommand(buildCmd, checkCmd, runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func reportDiagnostics(res *compiler.Result, color bool) {
	if res == nil || res.Diagnostics.Empty() {
		return
	}
	display := diagnostics.NewDisplay(res.Source, color)
	fmt.Fprint(os.Stderr, display.Render(res.Diagnostics))
}
