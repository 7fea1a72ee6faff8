package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gll2txt/internal/diagnostics"
	"gll2txt/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run startup checks against the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		report := diagnostics.NewChecker().Run(cfg)
		printReport(report)
		if report.HasFailures {
			return fmt.Errorf("startup checks failed")
		}
		return nil
	},
}

// printReport writes one line per check with its hint when present.
func printReport(report domain.DiagnosticReport) {
	for _, item := range report.Items {
		marker := "ok"
		if item.Status == domain.DiagnosticStatusFail {
			marker = "FAIL"
		}
		fmt.Printf("[%4s] %-20s %s\n", marker, item.Name, item.Message)
		if item.Hint != "" {
			fmt.Printf("       %s\n", item.Hint)
		}
	}
}
