package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/mielalabs/mpl-magick/grimoire"
	"github.com/mielalabs/mpl-magick/mpl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runCLI(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries the global flags and streams shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func runCLI(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCommand(&cli{stdin: stdin, stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "mpl",
		Short:         "Magick Programming Language",
		Long:          "mpl runs rituals written in the Magick Programming Language.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath, "config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(c),
		newShellCommand(c),
		newTokensCommand(c),
		newModulesCommand(c),
		newCheckCommand(c),
		newFmtCommand(c),
	)
	return root
}

// load reads the config file and applies the global flag overrides.
func (c *cli) load(cmd *cobra.Command) (*config, *log.Logger, error) {
	cfg, err := loadConfig(c.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	logger, err := newLogger(c.stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newRunCommand(c *cli) *cobra.Command {
	var (
		debug  bool
		strict bool
		quota  int
		kbs    []string
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a ritual file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			if strict {
				cfg.Engine.StrictParse = true
			}
			if quota > 0 {
				cfg.Engine.StepQuota = quota
			}
			cfg.Ontology.Paths = append(cfg.Ontology.Paths, kbs...)
			return c.runFile(cmd.Context(), cfg, logger, args[0], debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "dump tokens and syntax tree before running")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to run when any statement fails to parse")
	cmd.Flags().IntVar(&quota, "quota", 0, "maximum number of statements executed")
	cmd.Flags().StringArrayVar(&kbs, "kb", nil, "add a knowledge base file (repeatable)")
	return cmd
}

func (c *cli) runFile(ctx context.Context, cfg *config, logger *log.Logger, path string, debug bool) error {
	source, err := readSource(path)
	if err != nil {
		return err
	}
	if debug {
		c.dump(source)
	}

	rt, err := newRuntime(ctx, runtimeOptions{
		Config: cfg,
		Output: mpl.NewWriterOutput(c.stdout, c.stderr),
		Logger: logger,
		Stdin:  c.stdin,
		Stdout: c.stdout,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.engine.Execute(ctx, source)
	if err != nil {
		return ritualError(err)
	}
	logger.Info("ritual complete", "file", filepath.Base(path), "statements", result.Statements, "steps", result.Steps)
	return nil
}

// dump writes the token stream and syntax tree to stderr.
func (c *cli) dump(source string) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	tokens, err := mpl.Scan(source)
	if err != nil {
		fmt.Fprintln(c.stderr, ritualError(err))
		return
	}
	fmt.Fprintln(c.stderr, "-- tokens")
	cfg.Fdump(c.stderr, tokens)
	stmts, _ := mpl.Parse(tokens)
	fmt.Fprintln(c.stderr, "-- statements")
	cfg.Fdump(c.stderr, stmts)
}

func newShellCommand(c *cli) *cobra.Command {
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive ritual shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			if noHistory {
				cfg.Shell.HistoryPath = ""
			}
			return runREPL(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the history database")
	return cmd
}

func newTokensCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a ritual file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := mpl.Scan(source)
			if err != nil {
				return ritualError(err)
			}
			w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			for _, tok := range tokens {
				fmt.Fprintf(w, "%d:%d\t%s\t%s\n", tok.Pos.Line, tok.Pos.Column, tok.Type, tok.Lexeme)
			}
			return w.Flush()
		},
	}
}

func newModulesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the grimoire modules and their functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			registry, err := grimoire.New(grimoire.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer registry.Close()

			w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			for _, module := range registry.Modules() {
				fmt.Fprintf(w, "%s\t%s\n", module.Name, module.Doc)
				for _, fn := range module.Functions {
					fmt.Fprintf(w, "  %s\t%s\n", fn.Signature(), fn.Doc)
				}
			}
			return w.Flush()
		},
	}
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read ritual: %w", err)
	}
	return string(data), nil
}
