// Package parser turns a comma separated report line into a report.
package parser

import (
	"fmt"
	"strings"

	"lostfound-bot/models"
)

// MinFields is the fewest comma separated parts a report line may have.
const MinFields = 3

const (
	LostTemplate  = "ITEM, LOCATION, DESCRIPTION"
	FoundTemplate = "ITEM, LOCATION, CONTACT_PHONE, DESCRIPTION (optional)"
)

// Template returns the expected line format for a report type.
func Template(t models.ReportType) string {
	if t == models.Found {
		return FoundTemplate
	}
	return LostTemplate
}

// FormatError means the line could not be read as a report of Type.
type FormatError struct {
	Type     models.ReportType
	Template string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s report: %s (expected %q)", e.Type, e.Reason, e.Template)
}

func formatError(t models.ReportType, reason string) *FormatError {
	return &FormatError{Type: t, Template: Template(t), Reason: reason}
}

// Parse reads text as a report of type t. For found reports imageURL is the
// staged image, if any. The result has no id, code or timestamp yet.
//
// Lost:  item, location, description...
// Found: item, location, contact phone, description...
func Parse(text string, t models.ReportType, imageURL string) (*models.Report, error) {
	parts := strings.Split(text, ",")
	if len(parts) < MinFields {
		return nil, formatError(t, fmt.Sprintf("got %d fields, need %d", len(parts), MinFields))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	item, location := parts[0], parts[1]
	if item == "" {
		return nil, formatError(t, "item is empty")
	}
	if location == "" {
		return nil, formatError(t, "location is empty")
	}

	report := &models.Report{
		Type:     t,
		Item:     item,
		Location: location,
	}

	var rest []string
	switch t {
	case models.Found:
		if parts[2] == "" {
			return nil, formatError(t, "contact phone is empty")
		}
		report.ContactPhone = parts[2]
		report.ImageURL = imageURL
		rest = parts[3:]
	default:
		rest = parts[2:]
	}

	report.Description = strings.TrimSpace(strings.Join(rest, ", "))
	if report.Description == "" {
		report.Description = models.NoDescription
	}
	return report, nil
}
