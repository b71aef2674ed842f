package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

const (
	templateFilePermission = 0o600
	defaultServerURL       = "http://localhost:9080"
	defaultRequestTimeout  = 10 * time.Second
)

func newSummaryCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print per-rater averages, the final score and the GPA of a document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			sess := doc.Session(args[0])
			sum := types.NewSummary(opts.policy.Evaluate(sess))
			opts.log.Debug(cmd.Context(), "document evaluated",
				logger.String("file", args[0]),
				logger.String("policy", string(opts.policy)),
				logger.Int("filled", sum.Filled))
			return renderSummary(cmd.OutOrStdout(), opts.palette, sess.Student, sum)
		},
	}
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that every item of every sheet holds a valid score.",
		Long: "validate parses FILE and lists every item that is not a valid score under the\n" +
			"selected policy. It exits non-zero unless all items are filled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			sess := doc.Session(args[0])
			missing, err := renderValidation(cmd.OutOrStdout(), opts.palette, opts.policy, sess)
			if err != nil {
				return err
			}
			if missing > 0 {
				return fmt.Errorf("%w: %d of %d items missing", ErrIncomplete, missing, model.TotalItems)
			}
			return nil
		},
	}
}

func newTemplateCommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty score document.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, templateFilePermission)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						opts.log.Error(cmd.Context(), "failed to close template", logger.Error(err))
					}
				}()
				w = f
			}
			return document.Encode(w, model.NewSession(""))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to FILE instead of stdout")
	return cmd
}

func newPushCommand(opts *options) *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Import a document into a running server and print its summary.",
		Long: "push uploads FILE to POST /sessions/import. The Idempotency-Key is derived\n" +
			"from the file content, so pushing the same file twice reuses one session.\n" +
			"The summary is computed by the server under its own score_policy; --policy\n" +
			"does not apply and the policy used is printed with the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, body, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			sum := sha256.Sum256(body)
			key := hex.EncodeToString(sum[:])

			client := newHTTPClient(url, timeout, opts.log)
			ctx := cmd.Context()
			if err := client.CheckHealth(ctx); err != nil {
				return err
			}
			sess, created, err := client.Import(ctx, key, body)
			if err != nil {
				return err
			}
			summary, err := client.Summary(ctx, sess.ID)
			if err != nil {
				return err
			}

			state := "reused"
			if created {
				state = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%s)\n", sess.ID, state)
			return renderSummary(cmd.OutOrStdout(), opts.palette, doc.Session(sess.ID).Student, summary)
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultServerURL, "base URL of the scoring service")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultRequestTimeout, "HTTP request timeout")
	return cmd
}
