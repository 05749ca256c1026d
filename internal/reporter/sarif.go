package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name string `json:"name"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

// WriteSARIF writes rows as a SARIF v2.1.0 log.
func WriteSARIF(w io.Writer, rows []Row) error {
	results := make([]sarifResult, 0, len(rows))
	for _, r := range rows {
		ruleID := r.BugType
		if ruleID == "" {
			ruleID = "unknown"
		}
		msg := r.BugName
		if msg == "" {
			msg = r.BugType
		}
		loc := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: r.FileName},
				Region:           parseRegion(r.FileLines),
			},
		}
		results = append(results, sarifResult{
			RuleID:    ruleID,
			Level:     sarifLevel(r.BugPriority),
			Message:   sarifMessage{Text: msg},
			Locations: []sarifLocation{loc},
		})
	}

	sarif := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "vulnforge"}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	return nil
}

func sarifLevel(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "critical", "high":
		return "error"
	case "medium":
		return "warning"
	default:
		return "note"
	}
}

// parseRegion understands "12" and "12-30"; anything else has no region.
func parseRegion(lines string) *sarifRegion {
	lines = strings.TrimSpace(lines)
	if lines == "" {
		return nil
	}
	start, end, found := strings.Cut(lines, "-")
	s, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil || s < 1 {
		return nil
	}
	region := &sarifRegion{StartLine: s}
	if found {
		e, err := strconv.Atoi(strings.TrimSpace(end))
		if err == nil && e >= s {
			region.EndLine = e
		}
	}
	return region
}
