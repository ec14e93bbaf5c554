package matcher

import (
	"fmt"
	"strings"

	"lostfound-bot/models"
)

// SearchMode selects how the manual search compares the query.
type SearchMode string

const (
	// SearchExact compares the query with the item name, ignoring case.
	SearchExact SearchMode = "exact"
	// SearchSubstring looks for the query in item, location and description.
	SearchSubstring SearchMode = "substring"
)

// SearchScope selects which reports a manual search reads.
type SearchScope string

const (
	ScopeFound SearchScope = "found"
	ScopeAll   SearchScope = "all"
)

func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(s))) {
	case SearchExact, "":
		return SearchExact, nil
	case SearchSubstring:
		return SearchSubstring, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

func ParseSearchScope(s string) (SearchScope, error) {
	switch SearchScope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeFound, "":
		return ScopeFound, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", fmt.Errorf("unknown search scope %q", s)
}

// Search returns the reports that match query, in input order.
func Search(query string, reports []models.Report, mode SearchMode) []models.Report {
	q := normalize(query)
	if q == "" {
		return nil
	}

	var hits []models.Report
	for _, report := range reports {
		var hit bool
		switch mode {
		case SearchSubstring:
			haystack := normalize(report.Item + " " + report.Location + " " + report.Description)
			hit = strings.Contains(haystack, q)
		default:
			hit = normalize(report.Item) == q
		}
		if hit {
			hits = append(hits, report)
		}
	}
	return hits
}
