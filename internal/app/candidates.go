package app

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Candidate is a place name suggested by the text model, not yet verified.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var candidateLine = regexp.MustCompile(`^\s*\d+\.\s*([^:]+):?\s*(.*)$`)

// ExtractCandidates parses "<index>. <name>[:<description>]" lines in input
// order. Other lines are skipped. Duplicate names keep the first description.
func ExtractCandidates(text string) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		m := candidateLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := cleanName(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		desc := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[2]), "*"))
		out = append(out, Candidate{Name: name, Description: desc})
	}
	return out
}

// cleanName strips markdown emphasis the model likes to put around names and
// composes Hangul jamo so names compare equal to provider names.
func cleanName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.Trim(s, "*_`")
	return strings.TrimSpace(s)
}
