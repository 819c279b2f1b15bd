package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/notesearch/internal/app"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
	usageuc "github.com/kailas-cloud/notesearch/internal/usecase/usage"
)

var (
	usageUser  string
	usageReset bool
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show or reset a user's AI usage for today",
	Long: `Print today's AI word and request counters for a user against the
configured quota. With --reset the counters for today are cleared.`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().StringVarP(&usageUser, "user", "u", "", "User ID (required)")
	usageCmd.Flags().BoolVar(&usageReset, "reset", false, "Clear today's counters for the user")
	_ = usageCmd.MarkFlagRequired("user")
}

func runUsage(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, _, closeStore, err := app.NewUsageStore(ctx, cfg.Usage, cfg.UsageTTL())
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := quota.NewPolicy(cfg.Quota.MaxWordsPerDay, cfg.Quota.MaxRequestsPerDay)
	if err != nil {
		return err
	}
	svc := usageuc.New(store, policy, logger)

	if usageReset {
		if err := svc.Reset(ctx, usageUser); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset usage for %s\n", usageUser)
	}

	report, err := svc.Report(ctx, usageUser)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), usageUser, report)
	return nil
}

func printReport(w io.Writer, user string, r domusage.Report) {
	rec := r.Record()
	fmt.Fprintf(w, "User:      %s (%s)\n", user, rec.Key.Date)
	fmt.Fprintf(w, "Words:     %d used, %s remaining\n", rec.WordsUsed, remainingText(r.RemainingWords()))
	fmt.Fprintf(w, "Requests:  %d used, %s remaining\n", rec.RequestsCount, remainingText(r.RemainingRequests()))
	fmt.Fprintf(w, "Resets at: %s\n", r.ResetsAt().Format(time.RFC3339))
}

func remainingText(n int64) string {
	if n < 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}
