package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Trigger a reconciliation pass",
	RunE:  runReconcile,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create resources",
}

var createTicketCmd = &cobra.Command{
	Use:   "ticket TITLE",
	Short: "Create a remediation ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreateTicket,
}

var closeTicketCmd = &cobra.Command{
	Use:   "close-ticket ID",
	Short: "Close a ticket and every case linked to its vulnerabilities",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloseTicket,
}

var syncAlertsCmd = &cobra.Command{
	Use:   "sync-alerts",
	Short: "Pull the recent alert window from the SIEM",
	RunE:  runSyncAlerts,
}

func init() {
	reconcileCmd.Flags().Bool("sync", false, "Run the pass inline instead of queueing it")

	createTicketCmd.Flags().String("assignee", "", "Analyst the ticket is assigned to")
	createTicketCmd.Flags().StringSlice("vuln", nil, "Vulnerability id to cover (repeatable)")

	createCmd.AddCommand(createTicketCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	client := mustClient()

	path := "/api/v1/reconcile"
	sync, _ := cmd.Flags().GetBool("sync")
	if sync {
		path += "?sync=true"
	}

	data, err := client.Post(path, nil)
	if err != nil {
		return err
	}

	if sync {
		var resp PassResponse
		if err := unmarshal(data, &resp); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(resp)
		case outputYAML:
			printYAML(resp)
		default:
			if len(resp.NewlyFinished) == 0 {
				fmt.Println("Pass completed. No newly finished scans.")
				return nil
			}
			fmt.Printf("Pass completed. Newly finished scans:\n")
			for _, id := range resp.NewlyFinished {
				fmt.Printf("  - %s\n", id)
			}
		}
		return nil
	}

	fmt.Println("Reconciliation pass queued.")
	return nil
}

func runCreateTicket(cmd *cobra.Command, args []string) error {
	client := mustClient()

	assignee, _ := cmd.Flags().GetString("assignee")
	vulns, _ := cmd.Flags().GetStringSlice("vuln")

	body := map[string]any{
		"title":             args[0],
		"assigned_to":       assignee,
		"vulnerability_ids": vulns,
	}

	data, err := client.Post("/api/v1/tickets", body)
	if err != nil {
		return err
	}

	var t TicketResponse
	if err := unmarshal(data, &t); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(t)
	case outputYAML:
		printYAML(t)
	default:
		fmt.Printf("Ticket created: %s\n", t.ID)
		if len(t.VulnerabilityIDs) > 0 {
			fmt.Printf("  Covers: %s\n", strings.Join(t.VulnerabilityIDs, ", "))
		}
	}
	return nil
}

func runCloseTicket(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Post("/api/v1/tickets/"+args[0]+"/close", nil)
	if err != nil {
		return err
	}

	var t TicketResponse
	if err := unmarshal(data, &t); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(t)
	case outputYAML:
		printYAML(t)
	default:
		fmt.Printf("Ticket %s closed.\n", t.ID)
		if t.ResolvedAt != nil {
			fmt.Printf("  Resolved at: %s\n", shortTime(*t.ResolvedAt))
		}
	}
	return nil
}

func runSyncAlerts(cmd *cobra.Command, args []string) error {
	client := mustClient()

	data, err := client.Post("/api/v1/alerts/sync", nil)
	if err != nil {
		return err
	}

	var resp SyncResponse
	if err := unmarshal(data, &resp); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(resp)
	case outputYAML:
		printYAML(resp)
	default:
		fmt.Printf("Alert sync completed. %d alert(s) stored.\n", resp.Stored)
	}
	return nil
}
