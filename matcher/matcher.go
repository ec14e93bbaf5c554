// Package matcher ranks found reports against a lost item's name and
// filters reports for free text search.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lostfound-bot/models"
)

// Mode selects how lost items are matched against found reports.
type Mode string

const (
	// ModeExact matches on normalized item name equality only.
	ModeExact Mode = "exact"
	// ModeWeighted scores name, keyword, image and recency signals.
	ModeWeighted Mode = "weighted"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact:
		return ModeExact, nil
	case ModeWeighted, "":
		return ModeWeighted, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

const (
	scoreExact     = 100
	scoreContains  = 80
	scoreItemWord  = 3
	scoreDescWord  = 1
	bonusImage     = 2
	bonusRecent    = 1
	recentWindow   = 7 * 24 * time.Hour
	minKeywordRune = 2
)

// Match is a found report with the score it was ranked by.
type Match struct {
	Report models.Report
	Score  int
}

// Matcher is stateless; every call scores the reports it is given afresh.
type Matcher struct {
	mode Mode
	now  func() time.Time
}

func New(mode Mode, now func() time.Time) *Matcher {
	if now == nil {
		now = time.Now
	}
	if mode == "" {
		mode = ModeWeighted
	}
	return &Matcher{mode: mode, now: now}
}

func (m *Matcher) Mode() Mode { return m.mode }

// Match scores every found report in reports against item and returns the
// non-zero ones, best first. Equal scores keep their input order.
func (m *Matcher) Match(item string, reports []models.Report) []Match {
	query := normalize(item)
	if query == "" {
		return nil
	}

	var matches []Match
	for _, report := range reports {
		if report.Type != models.Found {
			continue
		}
		var score int
		if m.mode == ModeExact {
			score = exactScore(query, report)
		} else {
			score = m.weightedScore(query, report)
		}
		if score > 0 {
			matches = append(matches, Match{Report: report, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func exactScore(query string, report models.Report) int {
	if normalize(report.Item) == query {
		return scoreExact
	}
	return 0
}

// weightedScore only adds the image and recency bonuses to reports that
// already matched on text, so an unrelated report never ranks.
func (m *Matcher) weightedScore(query string, report models.Report) int {
	name := normalize(report.Item)
	description := normalize(report.Description)

	var score int
	switch {
	case name == query:
		score = scoreExact
	case strings.Contains(name, query) || (name != "" && strings.Contains(query, name)):
		score = scoreContains
	default:
		for _, keyword := range strings.Fields(query) {
			if len([]rune(keyword)) < minKeywordRune {
				continue
			}
			if strings.Contains(name, keyword) {
				score += scoreItemWord
			}
			if strings.Contains(description, keyword) {
				score += scoreDescWord
			}
		}
	}
	if score == 0 {
		return 0
	}

	if report.ImageURL != "" {
		score += bonusImage
	}
	if !report.Timestamp.IsZero() && m.now().Sub(report.Timestamp) <= recentWindow {
		score += bonusRecent
	}
	return score
}

// normalize lowercases s and collapses runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
