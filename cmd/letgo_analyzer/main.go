package main

import (
	"errors"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// ExitCodeError signals a non-zero exit code without calling os.Exit directly.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

// exit codes
const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `letgo_analyzer v%s - UL 1400-1 let-go waveform analysis

Usage:
  letgo_analyzer letgo [OPTIONS]
  letgo_analyzer version

Options (letgo):
  -i NAME                     Importer source type (default: tek_mso4)
  -f NAME                     Importer format type (default: csv)
  -d FILE                     Data file to analyze (required)
  -c ID                       Channel ID holding the current waveform
  -v ID                       Channel ID holding the voltage waveform
  -e dry|wet                  Test condition (required unless set in config)
  -s SECONDS                  Skip samples before this time (default: 0)
  -w, --window-duration S     Minimum compliant window in seconds (default: 3)
  --by-label                  Match -c and -v against channel labels instead of IDs
  --interpretation-level L    strict, typos, reasonable or speculative (default: strict)
  --standard-version V        Threshold table revision (default: ul1400_1_issue_1)
  --num-cores N               Worker limit (0 = every CPU)
  --thresholds FILE           Threshold table YAML replacing the built-in one
  --config FILE               Config file (default: ~/.config/letgo/config.yaml)
  --require-data              Fail when no samples remain after the skip time
  -json                       Print the result as JSON instead of text
  -plot DIR                   Write waveform and heatmap PNGs to DIR
  -pdf FILE                   Write a PDF report to FILE
  -progress                   Show a progress view while analyzing

Exit status:
  0 PASS, 1 FAIL, 2 configuration, input or usage error

Examples:
  letgo_analyzer letgo -d capture.csv -c CH1 -v CH2 -e dry -s 0.001
  letgo_analyzer letgo -d capture.csv -c CH1 -e wet --interpretation-level typos -json
  letgo_analyzer letgo -d capture.csv -c CH1 -v CH2 -e dry -pdf report.pdf -plot plots/
`, Version)
}

// Run dispatches the sub-command named in args.
func Run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return ExitCodeError{Code: exitError}
	}
	switch args[0] {
	case "letgo":
		return runLetGo(args[1:])
	case "version", "-version", "--version":
		fmt.Printf("letgo_analyzer v%s\n", Version)
		return nil
	case "help", "-h", "-help", "--help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitCodeError{Code: exitError}
	}
}

func main() {
	err := Run(os.Args[1:])
	if err == nil {
		return
	}
	var exit ExitCodeError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitError)
}
