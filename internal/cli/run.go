package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run and replies commands.
type RunOptions struct {
	*RootOptions
	Sequence string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily outreach pass",
		Long: `Scan the contact store, send today's initial emails and follow-ups
within the daily and per-domain limits, then mail the daily summary.

Weekends and US federal holidays are skipped. With test mode on, a single
sample goes to the test recipient and no contact is touched.

Example:
  outreach run
  outreach run --sequence speaking --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutreach(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Sequence, "sequence", "", "sequence key (default: the configured default sequence)")
	return cmd
}

func runOutreach(cmd *cobra.Command, opts *RunOptions) error {
	ctx := commandContext(cmd)
	a, _, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.RunOutreach(ctx, opts.Sequence)
	if err != nil {
		return classify("outreach run failed", err)
	}
	return formatter(cmd, opts.RootOptions).Success(res, func(w io.Writer) { writeRun(w, res) })
}

// NewRepliesCommand creates the replies command.
func NewRepliesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replies",
		Short: "Mail the reply stats report",
		Long: `Count contacts that replied within the configured reporting window
(weekly or monthly), broken down by source and by the sequence step that
drew the reply, and mail the report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, _, err := openApp(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			defer closeApp(a)

			res, err := a.RunReplies(ctx, opts.Sequence)
			if err != nil {
				return classify("reply stats failed", err)
			}
			return formatter(cmd, opts.RootOptions).Success(res, func(w io.Writer) { writeReplies(w, res) })
		},
	}
	cmd.Flags().StringVar(&opts.Sequence, "sequence", "", "sequence key (default: the configured default sequence)")
	return cmd
}
