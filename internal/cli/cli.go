// Package cli implements defensectl, the offline companion of the scoring
// service: it summarizes, validates and templates score documents and can
// push them to a running server.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

// All linker flags may be set at build time.
var version = "dev"

// options holds the persistent flags shared by every subcommand.
type options struct {
	policyName string
	noColor    bool
	verbose    bool

	policy  scoring.Policy
	palette *palette
	log     logger.Logger
}

// Execute runs defensectl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "defensectl",
		Short:         "Summarize, validate and exchange thesis defense score documents.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.policyName, "policy", string(scoring.DefaultPolicy), "score validity policy: strict or zero_inclusive")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and decisions to stderr")

	root.AddCommand(
		newSummaryCommand(opts),
		newValidateCommand(opts),
		newTemplateCommand(opts),
		newPushCommand(opts),
	)
	return root
}

func (o *options) setup(stderr io.Writer) error {
	p, err := scoring.ParsePolicy(o.policyName)
	if err != nil {
		return err
	}
	o.policy = p
	o.palette = newPalette(o.noColor)

	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		return err
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}
	o.log = logger.Named("defensectl")
	return nil
}

// readDocument decodes path, or standard input when path is "-".
func readDocument(cmd *cobra.Command, path string) (*document.Document, []byte, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := document.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, body, nil
}
