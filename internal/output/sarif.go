package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format, one result per
// finding line and one rule per report category.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, doc *Document) error {
	data, err := json.MarshalIndent(buildSARIF(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool         `json:"tool"`
	AutomationDetails *sarifAutomation  `json:"automationDetails,omitempty"`
	Results           []sarifResult     `json:"results"`
	Properties        map[string]string `json:"properties,omitempty"`
}

type sarifAutomation struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
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
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

func buildSARIF(doc *Document) sarifLog {
	rules := make([]sarifRule, 0, len(doc.Categories))
	results := make([]sarifResult, 0, doc.Total)

	for _, cat := range doc.Categories {
		id := ruleID(cat.Name)
		rules = append(rules, sarifRule{
			ID:               id,
			Name:             cat.Name,
			ShortDescription: sarifMessage{Text: cat.Name},
			DefaultConfig:    sarifDefaultConfig{Level: "error"},
		})
		for _, f := range cat.Findings {
			result := sarifResult{
				RuleID:  id,
				Level:   "error",
				Message: sarifMessage{Text: f},
			}
			if doc.Candidate != "" {
				result.Locations = []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: doc.Candidate},
					},
				}}
			}
			results = append(results, result)
		}
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           "apiguard",
				Version:        doc.Version,
				InformationURI: "https://github.com/dshills/apiguard",
				Rules:          rules,
			},
		},
		Results: results,
		Properties: map[string]string{
			"verdict":     doc.Verdict,
			"fingerprint": doc.Fingerprint,
		},
	}
	if doc.RunID != "" {
		run.AutomationDetails = &sarifAutomation{ID: "apiguard/" + doc.RunID}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

// ruleID turns a category name into a stable rule id,
// e.g. "Removed Decls" -> "apiguard/removed-decls".
func ruleID(category string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(category), "-"))
	return "apiguard/" + slug
}
