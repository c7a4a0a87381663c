package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show detailed information about a resource",
}

var describeScanCmd = &cobra.Command{
	Use:   "scan SCAN_ID",
	Short: "Show a scan and its latest report summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribeScan,
}

var describeVulnerabilityCmd = &cobra.Command{
	Use:     "vulnerability VULN_ID",
	Aliases: []string{"vuln"},
	Short:   "Show a vulnerability",
	Args:    cobra.ExactArgs(1),
	RunE:    runDescribeVulnerability,
}

var describeTicketCmd = &cobra.Command{
	Use:   "ticket ID",
	Short: "Show a remediation ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribeTicket,
}

func init() {
	describeCmd.AddCommand(describeScanCmd)
	describeCmd.AddCommand(describeVulnerabilityCmd)
	describeCmd.AddCommand(describeTicketCmd)
}

func runDescribeScan(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/scans/" + args[0])
	if err != nil {
		return err
	}

	var s ScanResponse
	if err := unmarshal(data, &s); err != nil {
		return err
	}

	if flagOutput == outputJSON {
		printJSON(s)
		return nil
	}
	if flagOutput == outputYAML {
		printYAML(s)
		return nil
	}

	fmt.Printf("Scan: %s\n", s.Name)
	fmt.Printf("  Scan ID:       %s\n", s.ScanID)
	fmt.Printf("  Status:        %s\n", s.Status)
	fmt.Printf("  Engagement:    %d\n", s.EngagementID)
	if s.Comment != "" {
		fmt.Printf("  Comment:       %s\n", s.Comment)
	}
	fmt.Printf("  Created:       %s\n", shortTime(s.CreatedAt))
	if s.FinishedAt != nil {
		fmt.Printf("  Finished:      %s\n", shortTime(*s.FinishedAt))
	}

	// Summary only exists once the pipeline parsed a report.
	sumData, err := client.Get("/api/v1/scans/" + args[0] + "/summary")
	if err != nil {
		return nil
	}

	var sum SummaryResponse
	if err := unmarshal(sumData, &sum); err != nil {
		return err
	}

	fmt.Printf("\nLatest Report Summary (%s):\n", sum.ReportID)
	fmt.Printf("  Total:     %d\n", sum.TotalFindings)
	fmt.Printf("  Critical:  %d\n", sum.Counts.Critical)
	fmt.Printf("  High:      %d\n", sum.Counts.High)
	fmt.Printf("  Medium:    %d\n", sum.Counts.Medium)
	fmt.Printf("  Low:       %d\n", sum.Counts.Low)
	fmt.Printf("  Info:      %d\n", sum.Counts.Info)
	return nil
}

func runDescribeVulnerability(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/vulnerabilities/" + args[0])
	if err != nil {
		return err
	}

	var v VulnerabilityResponse
	if err := unmarshal(data, &v); err != nil {
		return err
	}

	if flagOutput == outputJSON {
		printJSON(v)
		return nil
	}
	if flagOutput == outputYAML {
		printYAML(v)
		return nil
	}

	fmt.Printf("Vulnerability: %s\n", v.Title)
	fmt.Printf("  Vuln ID:    %s\n", v.VulnerabilityID)
	fmt.Printf("  Severity:   %s\n", v.Severity)
	fmt.Printf("  Source:     %s\n", v.SourceKind)
	if v.CaseID != "" {
		fmt.Printf("  Case:       %s\n", v.CaseID)
	}
	if len(v.CVERefs) > 0 {
		fmt.Printf("  CVEs:       %s\n", strings.Join(v.CVERefs, ", "))
	}
	if v.Description != "" {
		fmt.Printf("  Description:\n    %s\n", v.Description)
	}
	fmt.Printf("  Created:    %s\n", shortTime(v.CreatedAt))
	return nil
}

func runDescribeTicket(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/tickets/" + args[0])
	if err != nil {
		return err
	}

	var t TicketResponse
	if err := unmarshal(data, &t); err != nil {
		return err
	}

	if flagOutput == outputJSON {
		printJSON(t)
		return nil
	}
	if flagOutput == outputYAML {
		printYAML(t)
		return nil
	}

	fmt.Printf("Ticket: %s\n", t.Title)
	fmt.Printf("  ID:         %s\n", t.ID)
	fmt.Printf("  Status:     %s\n", t.Status)
	if t.AssignedTo != "" {
		fmt.Printf("  Assigned:   %s\n", t.AssignedTo)
	}
	fmt.Printf("  Created:    %s\n", shortTime(t.CreatedAt))
	if t.ResolvedAt != nil {
		fmt.Printf("  Resolved:   %s\n", shortTime(*t.ResolvedAt))
	}
	if len(t.VulnerabilityIDs) > 0 {
		fmt.Printf("\nVulnerabilities:\n")
		for _, id := range t.VulnerabilityIDs {
			fmt.Printf("  - %s\n", id)
		}
	}
	return nil
}
