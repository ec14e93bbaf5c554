// Package verification issues the short codes printed on report
// confirmations and gates marking a report recovered or claimed on them.
//
// Codes are not checked for uniqueness across reports. Two reports may share
// a code, so a code is only ever compared against one report that was
// already looked up by id and owner.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"lostfound-bot/models"
	"lostfound-bot/store"
)

// CodeLength is the number of characters in a verification code.
const CodeLength = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrCodeLength      = errors.New("verification code has the wrong length")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrAlreadyResolved = errors.New("report already resolved")
	ErrNotOwner        = errors.New("report belongs to another sender")
)

// GenerateCode returns a fresh uppercase alphanumeric code.
func GenerateCode() string {
	// 252 is the largest multiple of len(alphabet) below 256; bytes above it
	// are redrawn so every character is equally likely.
	const limit = 256 - 256%len(alphabet)

	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(code) < CodeLength {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, alphabet[int(b)%len(alphabet)])
			if len(code) == CodeLength {
				break
			}
		}
	}
	return string(code)
}

// Normalize trims and uppercases a code as typed by a sender.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Verify checks a supplied code against the report's stored code.
func Verify(report *models.Report, supplied string) error {
	code := Normalize(supplied)
	if len([]rune(code)) != CodeLength {
		return ErrCodeLength
	}
	if code != Normalize(report.VerificationCode) {
		return ErrCodeMismatch
	}
	return nil
}

// Engine applies resolution flags to stored reports.
type Engine struct {
	reports store.Reports
	now     func() time.Time
}

func NewEngine(reports store.Reports, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{reports: reports, now: now}
}

// Authorize loads a report and checks that sender may resolve it.
func (e *Engine) Authorize(ctx context.Context, reportID, sender string) (*models.Report, error) {
	report, err := e.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Reporter != sender {
		return report, ErrNotOwner
	}
	if report.Resolved() {
		return report, ErrAlreadyResolved
	}
	return report, nil
}

// MarkResolved sets the report's resolution flag once the sender presents
// the matching code. A wrong-length or mismatched code leaves the report
// untouched and may be retried without limit.
func (e *Engine) MarkResolved(ctx context.Context, reportID, sender, code string) (*models.Report, error) {
	report, err := e.Authorize(ctx, reportID, sender)
	if err != nil {
		return report, err
	}
	if err := Verify(report, code); err != nil {
		return report, err
	}
	return e.apply(ctx, report)
}

// MarkResolvedUnverified resolves a report without a code. allowed decides
// whether sender may act on the report.
func (e *Engine) MarkResolvedUnverified(ctx context.Context, reportID string, allowed func(*models.Report) bool) (*models.Report, error) {
	report, err := e.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !allowed(report) {
		return report, ErrNotOwner
	}
	if report.Resolved() {
		return report, ErrAlreadyResolved
	}
	return e.apply(ctx, report)
}

func (e *Engine) apply(ctx context.Context, report *models.Report) (*models.Report, error) {
	at := e.now().UTC()
	status := report.Status()
	if err := e.reports.UpdateReport(ctx, report.ID.Hex(), models.ResolutionUpdate(status, at)); err != nil {
		return report, fmt.Errorf("mark %s: %w", status, err)
	}
	if status == models.Claimed {
		report.Claimed, report.ClaimedAt = true, &at
	} else {
		report.Recovered, report.RecoveredAt = true, &at
	}
	return report, nil
}
