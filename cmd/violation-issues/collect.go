package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tsanders/violation-issues/pkg/build"
	"github.com/tsanders/violation-issues/pkg/issue"
	"github.com/tsanders/violation-issues/pkg/priority"
	"github.com/tsanders/violation-issues/pkg/trend"
	"github.com/tsanders/violation-issues/pkg/ux"
	"github.com/tsanders/violation-issues/pkg/violation"
)

func newCollectCmd(opts *options) *cobra.Command {
	var (
		reportPath   string
		buildNumber  int
		outputPath   string
		saveSnapshot bool
		minPriority  string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect issues from a violations report",
		Long: `Collect reads a violations report, either directly with --report or from a
numbered build under --builds, and prints the resulting issues. Findings whose
source file cannot be read are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if reportPath != "" && saveSnapshot && buildNumber == 0 {
				return fmt.Errorf("--save with --report needs --build to number the snapshot")
			}

			var threshold priority.Priority
			if minPriority != "" {
				p, err := priority.Parse(minPriority)
				if err != nil {
					return err
				}
				threshold = p
			}

			// Keep stdout clean for YAML output
			if outputPath == "-" {
				ux.Out = cmd.ErrOrStderr()
			}

			var (
				result issue.Result
				found  bool
				number = buildNumber
				err    error
			)
			if reportPath != "" {
				b := &build.Build{
					Number:  buildNumber,
					Actions: []build.Action{&build.ViolationsAction{ReportPath: reportPath}},
				}
				result, found, err = collectBuild(ctx, opts, b)
			} else {
				var b *build.Build
				b, err = resolveBuild(opts, buildNumber)
				if err != nil {
					return err
				}
				number = b.Number
				result, found, err = collectBuild(ctx, opts, b)
			}
			if err != nil {
				return err
			}
			if !found {
				ux.PrintWarning("No violations report available for build #%d", number)
				return nil
			}
			// Snapshots keep every issue; the filter applies to output only
			shown := result
			if threshold != "" {
				shown.Issues = filterPriority(result.Issues, threshold)
			}

			if outputPath != "" {
				if err := writeIssues(cmd.OutOrStdout(), outputPath, shown.Issues); err != nil {
					return err
				}
			} else {
				printIssues(shown)
			}

			printFailures(result)

			if saveSnapshot {
				path := trend.SnapshotPath(opts.cfg.Store.HistoryDir, number)
				if err := trend.SaveSnapshot(trend.NewSnapshot(number, result.Issues), path); err != nil {
					return err
				}
				ux.PrintSuccess("Snapshot saved to %s", path)
			}

			if opts.cfg.Collect.FailFast && len(result.Failures) > 0 {
				return fmt.Errorf("%d findings could not be converted: %w", len(result.Failures), result.Errors())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to a violations.yaml file or its directory")
	cmd.Flags().IntVar(&buildNumber, "build", 0, "Build number under --builds (0 = latest); with --report, the snapshot's build number")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write issues as YAML to this file ('-' for stdout)")
	cmd.Flags().StringVar(&minPriority, "min-priority", "", "Only report issues at or above this priority (HIGH, NORMAL, LOW)")
	cmd.Flags().BoolVar(&saveSnapshot, "save", false, "Save the issues as a snapshot in the history directory")

	return cmd
}

func filterPriority(issues []issue.Issue, threshold priority.Priority) []issue.Issue {
	kept := issues[:0:0]
	for _, i := range issues {
		if i.Priority.Rank() <= threshold.Rank() {
			kept = append(kept, i)
		}
	}
	return kept
}

// resolveBuild returns build number from the store, or the latest build when number is 0
func resolveBuild(opts *options, number int) (*build.Build, error) {
	store := build.NewStore(opts.cfg.Store.BuildsDir)
	if number == 0 {
		return store.Latest()
	}
	return store.Get(number)
}

// collectBuild collects a build's issues, showing progress on a terminal
func collectBuild(ctx context.Context, opts *options, b *build.Build) (issue.Result, bool, error) {
	lookup, err := build.LoadReport(b)
	if err != nil {
		return issue.Result{}, false, err
	}
	if !lookup.Found {
		return issue.Result{}, false, nil
	}

	findings := lookup.Report.Findings()
	providerOpts := []issue.Option{}
	if ux.IsTerminal(ux.ProgressOut) && len(findings) > 0 {
		bar := ux.NewProgressBar(len(findings), "Fingerprinting")
		providerOpts = append(providerOpts, issue.WithProgress(func() { _ = bar.Add(1) }))
		defer bar.Finish()
	}

	provider := issue.NewProvider(opts.cfg.Fingerprinter(), issue.Config{
		Parallelism: opts.cfg.Collect.Parallelism,
		Encoding:    opts.cfg.Fingerprint.Encoding,
	}, providerOpts...)

	start := time.Now()
	result := provider.Collect(ctx, findings)
	if len(findings) > 0 {
		ux.PrintInfo("Processed %d findings in %s", len(findings), ux.FormatDuration(time.Since(start)))
	}
	return result, true, nil
}

// writeIssues writes issues as YAML to path, or stdout for "-"
func writeIssues(stdout io.Writer, path string, issues []issue.Issue) error {
	if path == "-" {
		return issue.WriteYAML(stdout, issues)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := issue.WriteYAML(f, issues); err != nil {
		return err
	}
	ux.PrintSuccess("Wrote %d issues to %s", len(issues), path)
	return nil
}

func printIssues(result issue.Result) {
	ux.PrintHeader("Issues")

	if len(result.Issues) == 0 {
		ux.PrintSuccess("No issues found")
		return
	}

	issues := append([]issue.Issue(nil), result.Issues...)
	issue.SortByPriority(issues)

	rows := [][]string{{"PRIORITY", "ID", "LOCATION", "CATEGORY", "MESSAGE"}}
	for _, i := range issues {
		rows = append(rows, []string{ux.FormatPriority(i.Priority), i.ID.String(), findingLocation(i.File, i.Line), i.Category, i.Message})
	}
	ux.PrintSummaryTable(rows)

	counts := result.Counts()
	ux.PrintSection("Summary")
	ux.PrintInfo("%d issues (%s %d, %s %d, %s %d)", len(issues),
		ux.FormatPriority(priority.High), counts[priority.High],
		ux.FormatPriority(priority.Normal), counts[priority.Normal],
		ux.FormatPriority(priority.Low), counts[priority.Low])
}

func printFailures(result issue.Result) {
	if len(result.Failures) == 0 {
		return
	}
	ux.PrintSection("Skipped findings")
	for _, f := range result.Failures {
		ux.PrintWarning("%s", f.Error())
	}
}

// findingLocation renders path:line, or just path when there is no line
func findingLocation(path string, line int) string {
	return violation.Finding{Path: path, Line: line}.Location()
}
