package wazuh

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openvocio/api/pkg/domain/alert"
)

type genericFinding struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Severity         string `json:"severity"`
	Source           string `json:"source"`
	Timestamp        string `json:"timestamp"`
	UniqueIDFromTool string `json:"unique_id_from_tool,omitempty"`
}

type genericImport struct {
	Findings []genericFinding `json:"findings"`
}

// ToGenericFindings converts alerts into the findings platform's generic
// import document. The alert's native id travels in unique_id_from_tool
// so its identity survives the import round trip.
func ToGenericFindings(alerts []*alert.Alert) ([]byte, error) {
	findings := make([]genericFinding, 0, len(alerts))
	for _, a := range alerts {
		ruleID := a.RuleID
		if ruleID == "" {
			ruleID = "N/A"
		}
		findings = append(findings, genericFinding{
			Title:            fmt.Sprintf("Wazuh Rule %s", ruleID),
			Description:      fmt.Sprintf("Detected by Wazuh agent at %s", a.Timestamp.Format(time.RFC3339)),
			Severity:         a.SeverityBucket(),
			Source:           "Wazuh",
			Timestamp:        a.Timestamp.Format(time.RFC3339),
			UniqueIDFromTool: a.AlertID,
		})
	}

	return json.Marshal(genericImport{Findings: findings})
}
