package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tsanders/violation-issues/pkg/build"
	"github.com/tsanders/violation-issues/pkg/issue"
	"github.com/tsanders/violation-issues/pkg/trend"
	"github.com/tsanders/violation-issues/pkg/ux"
)

func newTrendCmd(opts *options) *cobra.Command {
	var (
		buildNumber int
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare a build's issues with the previous build",
		Long: `Trend collects the issues of a build and classifies them against the
previous build as new, fixed or persisting. The previous build's issues are
read from its snapshot in the history directory when one exists, and
collected from its report otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			current, err := resolveBuild(opts, buildNumber)
			if err != nil {
				return err
			}

			result, found, err := collectBuild(ctx, opts, current)
			if err != nil {
				return err
			}
			if !found {
				ux.PrintWarning("No violations report available for build #%d", current.Number)
				return nil
			}
			printFailures(result)

			previous, havePrevious, err := previousIssues(ctx, opts, current.Number)
			if err != nil {
				return err
			}

			t := trend.Compare(previous, result.Issues)
			printTrend(current.Number, havePrevious, t)

			if save {
				path := trend.SnapshotPath(opts.cfg.Store.HistoryDir, current.Number)
				if err := trend.SaveSnapshot(trend.NewSnapshot(current.Number, result.Issues), path); err != nil {
					return err
				}
				ux.PrintSuccess("Snapshot saved to %s", path)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&buildNumber, "build", 0, "Build number under --builds (0 = latest)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the build's issues as a snapshot")

	return cmd
}

// previousIssues returns the issues of the build before number.
// ok is false when there is no earlier build with a report.
func previousIssues(ctx context.Context, opts *options, number int) ([]issue.Issue, bool, error) {
	store := build.NewStore(opts.cfg.Store.BuildsDir)
	prev, ok, err := store.Previous(number)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	snap, err := trend.LoadSnapshot(trend.SnapshotPath(opts.cfg.Store.HistoryDir, prev.Number))
	if err != nil {
		return nil, false, err
	}
	if snap != nil {
		logrus.WithField("build", prev.Number).Debug("using saved snapshot")
		return snap.Issues, true, nil
	}

	provider := issue.NewProvider(opts.cfg.Fingerprinter(), issue.Config{
		Parallelism: opts.cfg.Collect.Parallelism,
		Encoding:    opts.cfg.Fingerprint.Encoding,
	})
	result, found, err := provider.ExistingIssues(ctx, prev)
	if err != nil {
		return nil, false, fmt.Errorf("failed to collect previous build: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if len(result.Failures) > 0 {
		logrus.WithField("build", prev.Number).Warnf("%d findings of the previous build were skipped", len(result.Failures))
	}
	return result.Issues, true, nil
}

func printTrend(number int, havePrevious bool, t trend.Trend) {
	ux.PrintHeader(fmt.Sprintf("Trend for build #%d", number))

	if !havePrevious {
		ux.PrintInfo("No previous build to compare with; every issue is new")
	}

	ux.PrintInfo("%s  %s  %s",
		ux.FormatDelta("new", len(t.New)),
		ux.FormatDelta("fixed", len(t.Fixed)),
		ux.FormatDelta("persisting", len(t.Persisting)))

	if len(t.New) > 0 {
		ux.PrintSection("New issues")
		for _, i := range t.New {
			ux.PrintWarning("[%s] %s %s", ux.FormatPriority(i.Priority), findingLocation(i.File, i.Line), i.Message)
		}
	}
	if len(t.Fixed) > 0 {
		ux.PrintSection("Fixed issues")
		for _, i := range t.Fixed {
			ux.PrintSuccess("[%s] %s %s", ux.FormatPriority(i.Priority), findingLocation(i.File, i.Line), i.Message)
		}
	}
}
