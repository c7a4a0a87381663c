package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "List resources",
}

var getScansCmd = &cobra.Command{
	Use:     "scans",
	Aliases: []string{"scan"},
	Short:   "List tracked scans",
	RunE:    runGetScans,
}

var getVulnerabilitiesCmd = &cobra.Command{
	Use:     "vulnerabilities",
	Aliases: []string{"vulnerability", "vulns", "vuln"},
	Short:   "List deduplicated vulnerabilities",
	RunE:    runGetVulnerabilities,
}

var getTicketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"ticket"},
	Short:   "List remediation tickets",
	RunE:    runGetTickets,
}

var getAlertsCmd = &cobra.Command{
	Use:     "alerts",
	Aliases: []string{"alert"},
	Short:   "List recent SIEM alerts",
	RunE:    runGetAlerts,
}

func init() {
	getVulnerabilitiesCmd.Flags().Bool("unlinked", false, "Only vulnerabilities without a case")

	getCmd.AddCommand(getScansCmd)
	getCmd.AddCommand(getVulnerabilitiesCmd)
	getCmd.AddCommand(getTicketsCmd)
	getCmd.AddCommand(getAlertsCmd)
}

func runGetScans(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/scans")
	if err != nil {
		return err
	}

	var scans []ScanResponse
	if err := unmarshal(data, &scans); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(scans)
	case outputYAML:
		printYAML(scans)
	case outputWide:
		t := newTable("SCAN ID", "NAME", "STATUS", "ENGAGEMENT", "CREATED", "FINISHED")
		for _, s := range scans {
			t.AddRow(s.ScanID, s.Name, s.Status, strconv.Itoa(s.EngagementID), shortTime(s.CreatedAt), ptrStr(s.FinishedAt))
		}
		t.Flush()
		printCount(len(scans))
	default:
		t := newTable("SCAN ID", "NAME", "STATUS", "CREATED")
		for _, s := range scans {
			t.AddRow(truncate(s.ScanID, 36), truncate(s.Name, 40), s.Status, shortTime(s.CreatedAt))
		}
		t.Flush()
		printCount(len(scans))
	}
	return nil
}

func runGetVulnerabilities(cmd *cobra.Command, args []string) error {
	client := mustClient()

	path := "/api/v1/vulnerabilities"
	if unlinked, _ := cmd.Flags().GetBool("unlinked"); unlinked {
		path += "?unlinked=true"
	}

	data, err := client.Get(path)
	if err != nil {
		return err
	}

	var vulns []VulnerabilityResponse
	if err := unmarshal(data, &vulns); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(vulns)
	case outputYAML:
		printYAML(vulns)
	case outputWide:
		t := newTable("VULN ID", "TITLE", "SEVERITY", "SOURCE", "CASE", "CVES", "CREATED")
		for _, v := range vulns {
			caseID := v.CaseID
			if caseID == "" {
				caseID = "-"
			}
			t.AddRow(v.VulnerabilityID, v.Title, v.Severity, v.SourceKind, caseID,
				strings.Join(v.CVERefs, ","), shortTime(v.CreatedAt))
		}
		t.Flush()
		printCount(len(vulns))
	default:
		t := newTable("VULN ID", "TITLE", "SEVERITY", "SOURCE")
		for _, v := range vulns {
			t.AddRow(truncate(v.VulnerabilityID, 24), truncate(v.Title, 50), v.Severity, v.SourceKind)
		}
		t.Flush()
		printCount(len(vulns))
	}
	return nil
}

func runGetTickets(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/tickets")
	if err != nil {
		return err
	}

	var tickets []TicketResponse
	if err := unmarshal(data, &tickets); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(tickets)
	case outputYAML:
		printYAML(tickets)
	case outputWide:
		t := newTable("ID", "TITLE", "STATUS", "ASSIGNED", "VULNS", "CREATED", "RESOLVED")
		for _, tk := range tickets {
			t.AddRow(tk.ID, tk.Title, tk.Status, tk.AssignedTo,
				strconv.Itoa(len(tk.VulnerabilityIDs)), shortTime(tk.CreatedAt), ptrStr(tk.ResolvedAt))
		}
		t.Flush()
		printCount(len(tickets))
	default:
		t := newTable("ID", "TITLE", "STATUS", "VULNS")
		for _, tk := range tickets {
			t.AddRow(truncate(tk.ID, 12), truncate(tk.Title, 40), tk.Status, strconv.Itoa(len(tk.VulnerabilityIDs)))
		}
		t.Flush()
		printCount(len(tickets))
	}
	return nil
}

func runGetAlerts(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/alerts")
	if err != nil {
		return err
	}

	var alerts []AlertResponse
	if err := unmarshal(data, &alerts); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(alerts)
	case outputYAML:
		printYAML(alerts)
	case outputWide:
		t := newTable("ALERT ID", "RULE", "LEVEL", "BUCKET", "DESCRIPTION", "LINKED VULN", "TIME")
		for _, a := range alerts {
			linked := a.LinkedVulnerabilityID
			if linked == "" {
				linked = "-"
			}
			t.AddRow(a.AlertID, a.RuleID, strconv.Itoa(a.Severity), a.SeverityBucket,
				truncate(a.Description, 40), linked, shortTime(a.Timestamp))
		}
		t.Flush()
		printCount(len(alerts))
	default:
		t := newTable("ALERT ID", "RULE", "BUCKET", "TIME")
		for _, a := range alerts {
			t.AddRow(truncate(a.AlertID, 24), a.RuleID, a.SeverityBucket, shortTime(a.Timestamp))
		}
		t.Flush()
		printCount(len(alerts))
	}
	return nil
}
