package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/calc"
)

// Set via ldflags at build time.
var version = "dev"

const (
	exitSuccess = 0
	exitCalc    = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code. Failures
// are reported to stderr as a single "Error: <message>" line.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(splitArgs(root, args))
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag parsing errors come from cobra itself.
	return exitUsage
}

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates a new ExitError with the given code and formatted message.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc [flags] <expression>",
		Short: "Evaluate an arithmetic expression",
		Long: `calc evaluates an arithmetic expression and prints the result.

Expressions use + - * / ^ with the usual precedence, unary minus, brackets,
the constants pi and e, and the functions sin, cos, tg, ctg, ln, exp, and
sqrt. An expression may start with a minus sign, as in calc -2+3. Every
argument after "--" is an expression.

Defaults for --degrees and --fmt may be set in a YAML file, found at the
--config path, ./calc.yaml, or ~/.config/calc/config.yaml.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return exitError(exitUsage, "no expression provided")
			}
			return nil
		},
		RunE:          runCalc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.SetVersionTemplate("calc version {{.Version}}\n")

	cmd.Flags().BoolP("degrees", "d", false, "take trigonometric function arguments in degrees")
	cmd.Flags().String("fmt", defaultFormat, "result formatting verb")
	cmd.Flags().Bool("echo", false, "print the parse tree before the result")
	cmd.Flags().String("config", "", "defaults file (YAML)")
	cmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
	return cmd
}

func runCalc(cmd *cobra.Command, args []string) error {
	stdout := cmd.OutOrStdout()
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts, err := resolveOptions(cmd, logger)
	if err != nil {
		return err
	}

	// As with the flags, the last expression given is the one used.
	src := args[len(args)-1]
	if len(args) > 1 {
		logger.Debug("ignoring earlier arguments", "count", len(args)-1)
	}
	n, err := calc.ParseString(src)
	if err != nil {
		return exitError(exitCalc, "%w", err)
	}
	logger.Debug("parsed expression", "tree", n.String())

	evalopt := calc.Radians()
	if opts.degrees {
		evalopt = calc.Degrees()
	}
	r, err := calc.Eval(n, evalopt)
	if err != nil {
		return exitError(exitCalc, "%w", err)
	}
	logger.Debug("evaluated expression", "degrees", opts.degrees, "result", r)

	if opts.echo {
		fmt.Fprintf(stdout, "%v : ", n)
	}
	fmt.Fprintf(stdout, opts.format+"\n", r)
	return nil
}

// options are the settings for one run after merging flags and the defaults
// file.
type options struct {
	degrees bool
	echo    bool
	format  string
}

// resolveOptions merges the defaults file into the command's flags. Flags set
// on the command line take precedence.
func resolveOptions(cmd *cobra.Command, logger *slog.Logger) (options, error) {
	flags := cmd.Flags()
	var opts options
	opts.degrees, _ = flags.GetBool("degrees")
	opts.echo, _ = flags.GetBool("echo")
	opts.format, _ = flags.GetString("fmt")
	explicit, _ := flags.GetString("config")

	path, found, err := discoverConfigPath(explicit)
	if err != nil {
		return options{}, exitError(exitUsage, "%w", err)
	}
	if found {
		cfg, err := loadConfig(path)
		if err != nil {
			return options{}, exitError(exitUsage, "%w", err)
		}
		logger.Debug("loaded defaults", "path", path)
		if cfg.Degrees != nil && !flags.Changed("degrees") {
			opts.degrees = *cfg.Degrees
		}
		if cfg.Format != nil && !flags.Changed("fmt") {
			opts.format = *cfg.Format
		}
	}
	if err := checkFormat(opts.format); err != nil {
		return options{}, exitError(exitUsage, "%w", err)
	}
	return opts, nil
}

// splitArgs reorders args so that flags come first and every operand follows
// a "--". An argument that starts with "-" but names no flag of cmd, such as
// -2+3 or -sin(30), is an operand.
func splitArgs(cmd *cobra.Command, args []string) []string {
	cmd.InitDefaultHelpFlag()
	cmd.InitDefaultVersionFlag()
	// A nil result would make cobra fall back to os.Args.
	opts := make([]string, 0, len(args)+1)
	var operands []string
scan:
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			operands = append(operands, args[i+1:]...)
			break scan
		case isFlag(cmd, arg):
			opts = append(opts, arg)
			if takesValue(cmd, arg) && i+1 < len(args) {
				i++
				opts = append(opts, args[i])
			}
		default:
			operands = append(operands, arg)
		}
	}
	if len(operands) == 0 {
		return opts
	}
	return append(append(opts, "--"), operands...)
}

// isFlag reports whether arg is meant as a flag. Arguments naming no flag are
// still flags unless they read as an expression, so that cobra reports
// misspelled flags like --verbos.
func isFlag(cmd *cobra.Command, arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		name, _, _ = strings.Cut(name, "=")
		if cmd.Flags().Lookup(name) != nil {
			return true
		}
	} else if cmd.Flags().ShorthandLookup(arg[1:2]) != nil {
		return true
	}
	return !isExpression(arg)
}

// isExpression reports whether an argument starting with "-" is an expression.
func isExpression(arg string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimLeft(arg, "-"))
	if !unicode.IsLetter(r) && r != '_' {
		return true
	}
	_, err := calc.ParseString(arg)
	return err == nil
}

// takesValue reports whether the flag arg consumes the next argument as its
// value.
func takesValue(cmd *cobra.Command, arg string) bool {
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		if strings.Contains(name, "=") {
			return false
		}
		f := cmd.Flags().Lookup(name)
		return f != nil && f.NoOptDefVal == ""
	}
	// Shorthands may be grouped, as in -dv. A shorthand that takes a value
	// uses the rest of the group, or the next argument if it ends the group.
	for j := 1; j < len(arg); j++ {
		f := cmd.Flags().ShorthandLookup(arg[j : j+1])
		if f == nil {
			return false
		}
		if f.NoOptDefVal == "" {
			return j == len(arg)-1
		}
	}
	return false
}
