package main

import (
	"github.com/spf13/cobra"
	"github.com/tsanders/violation-issues/pkg/identity"
	"github.com/tsanders/violation-issues/pkg/priority"
	"github.com/tsanders/violation-issues/pkg/ux"
)

func newFingerprintCmd(opts *options) *cobra.Command {
	var (
		file     string
		line     int
		category string
		source   string
		severity int
	)

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the context fingerprint of a file location",
		Long: `Fingerprint hashes the lines around --line in --file. With --category and
--source it also prints the issue identity a finding at that location would get.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := opts.cfg.Fingerprinter().Create(file, line, opts.cfg.Fingerprint.Encoding)
			if err != nil {
				return err
			}

			ux.PrintInfo("%s fingerprint %s", findingLocation(file, line), fp)
			if category != "" && source != "" {
				id := identity.Compose(fp, category, source, severity)
				ux.PrintInfo("identity %s (%s)", id, ux.FormatPriority(priority.Classify(severity)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Source file (required)")
	cmd.Flags().IntVar(&line, "line", 0, "1-based line number (0 = no specific line)")
	cmd.Flags().StringVar(&category, "category", "", "Finding category, to print the identity")
	cmd.Flags().StringVar(&source, "source", "", "Finding source tool, to print the identity")
	cmd.Flags().IntVar(&severity, "severity", 0, "Finding severity level")

	cmd.MarkFlagRequired("file")

	return cmd
}
