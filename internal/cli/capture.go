package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	All bool
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture [campaign]",
		Short: "Capture leads for a campaign",
		Long: `Search the web with a campaign's queries, pull a contact email from each
result page and save new contacts. Contacts already in the store are
counted as duplicates.

Example:
  outreach capture student_athlete_leadership_agent
  outreach capture --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.All && len(args) > 0 {
				return NewExitError(ExitConfigError, "give a campaign or --all, not both")
			}
			if !opts.All && len(args) != 1 {
				return NewExitError(ExitConfigError, "capture needs exactly one campaign, or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "capture every configured campaign")
	return cmd
}

func runCapture(cmd *cobra.Command, opts *CaptureOptions, args []string) error {
	ctx := commandContext(cmd)
	a, _, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp(a)

	keys := args
	if opts.All {
		keys = a.CampaignKeys()
	}

	results := make([]domain.CaptureResult, 0, len(keys))
	var failed int
	for _, key := range keys {
		res, err := a.RunCapture(ctx, key)
		if err != nil {
			if !opts.All {
				return classify("capture failed", err)
			}
			logger.Error("capture failed", "campaign", key, "error", err)
			failed++
			continue
		}
		results = append(results, res)
	}

	out := formatter(cmd, opts.RootOptions)
	if err := out.Success(results, func(w io.Writer) { writeCapture(w, results) }); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d campaigns failed", failed, len(keys)))
	}
	return nil
}

// NewCampaignsCommand creates the campaigns command.
func NewCampaignsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "campaigns",
		Short: "List configured lead capture campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			keys := cfg.CampaignKeys()
			return formatter(cmd, rootOpts).Success(keys, func(w io.Writer) {
				for _, k := range keys {
					c := cfg.Campaigns[k]
					fmt.Fprintf(w, "%-48s %2d queries %2d feeds\n", k, len(c.Queries), len(c.Feeds))
				}
			})
		},
	}
}
