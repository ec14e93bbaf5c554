package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"lostfound-bot/models"
	"lostfound-bot/session"
	"lostfound-bot/store"
	"lostfound-bot/verification"

	"github.com/sirupsen/logrus"
)

func (e *Engine) myReports(ctx context.Context, sender string) (outcome, error) {
	reports, err := e.reports.FindReports(ctx, "reporter", sender)
	if err != nil {
		return outcome{}, fmt.Errorf("load sender reports: %w", err)
	}
	if len(reports) == 0 {
		return stay(e.msg.noReports()), nil
	}

	ids := make([]string, len(reports))
	open := false
	for i := range reports {
		ids[i] = reports[i].ID.Hex()
		open = open || !reports[i].Resolved()
	}
	if !open {
		return stay(e.msg.myReports(reports, false)), nil
	}
	return moveTo(session.SelectReport{ReportIDs: ids}, e.msg.myReports(reports, true)), nil
}

func (e *Engine) selectReport(ctx context.Context, sender string, s session.SelectReport, cmd Command) (outcome, error) {
	idx, ok := pick(cmd.Text, len(s.ReportIDs))
	if !ok {
		return stay(e.msg.pickInRange(len(s.ReportIDs))), nil
	}

	report, err := e.verifier.Authorize(ctx, s.ReportIDs[idx], sender)
	if out, handled := e.resolutionRefusal(report, err); handled {
		return out, nil
	}
	if err != nil {
		return outcome{}, err
	}
	next := session.VerifyCode{ReportID: s.ReportIDs[idx], Status: report.Status()}
	return moveTo(next, e.msg.codePrompt(report)), nil
}

func (e *Engine) verifyCode(ctx context.Context, sender string, s session.VerifyCode, cmd Command) (outcome, error) {
	report, err := e.verifier.MarkResolved(ctx, s.ReportID, sender, cmd.Text)
	switch {
	case errors.Is(err, verification.ErrCodeLength):
		return stay(e.msg.codeLength()), nil
	case errors.Is(err, verification.ErrCodeMismatch):
		return stay(e.msg.codeMismatch()), nil
	}
	if out, handled := e.resolutionRefusal(report, err); handled {
		return out, nil
	}
	if err != nil {
		return outcome{}, err
	}

	e.log.WithFields(logrus.Fields{
		"sender": sender,
		"report": s.ReportID,
		"status": report.Status(),
	}).Info("report resolved")
	return finish(e.msg.resolved(report)), nil
}

// resolutionRefusal turns the errors that end a resolution attempt into the
// reply that ends the dialog.
func (e *Engine) resolutionRefusal(report *models.Report, err error) (outcome, bool) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return finish(e.msg.reportGone()), true
	case errors.Is(err, verification.ErrNotOwner):
		return finish(e.msg.notOwner()), true
	case errors.Is(err, verification.ErrAlreadyResolved):
		return finish(e.msg.alreadyResolved(report)), true
	}
	return outcome{}, false
}

func (e *Engine) updateStatus(ctx context.Context, sender string, cmd Command) (outcome, error) {
	reports, err := e.reports.ListReports(ctx)
	if err != nil {
		return outcome{}, fmt.Errorf("load reports for status update: %w", err)
	}

	query := strings.ToLower(strings.Join(strings.Fields(cmd.Text), " "))
	var candidates []models.Report
	for _, r := range reports {
		if r.Resolved() || !reachable(&r, sender) {
			continue
		}
		name := strings.ToLower(strings.Join(strings.Fields(r.Item), " "))
		if name == query || r.ID.Hex() == cmd.Text {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return finish(e.msg.noOpenMatches(cmd.Text)), nil
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID.Hex()
	}
	return moveTo(session.ConfirmStatusUpdate{ReportIDs: ids}, e.msg.confirmCandidates(candidates)), nil
}

func (e *Engine) confirmStatusUpdate(ctx context.Context, sender string, s session.ConfirmStatusUpdate, cmd Command) (outcome, error) {
	idx, ok := pick(cmd.Text, len(s.ReportIDs))
	if !ok {
		return stay(e.msg.pickInRange(len(s.ReportIDs))), nil
	}

	report, err := e.verifier.MarkResolvedUnverified(ctx, s.ReportIDs[idx], func(r *models.Report) bool {
		return reachable(r, sender)
	})
	if out, handled := e.resolutionRefusal(report, err); handled {
		return out, nil
	}
	if err != nil {
		return outcome{}, err
	}

	story := &models.SuccessStory{
		ReportID:   report.ID,
		Type:       report.Type,
		Item:       report.Item,
		Location:   report.Location,
		ResolvedAt: *report.ResolvedAt(),
	}
	if err := e.stories.CreateSuccessStory(ctx, story); err != nil && !errors.Is(err, store.ErrConflict) {
		// The report stays resolved when the story write fails.
		e.log.WithField("report", report.ID.Hex()).WithError(err).Error("failed to record success story")
	}

	e.log.WithFields(logrus.Fields{
		"sender": sender,
		"report": report.ID.Hex(),
		"status": report.Status(),
	}).Info("report resolved without code")
	return finish(e.msg.storyRecorded(report)), nil
}

// pick reads a 1-based choice out of n and returns it 0-based.
func pick(text string, n int) (int, bool) {
	choice, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || choice < 1 || choice > n {
		return 0, false
	}
	return choice - 1, true
}

// reachable reports whether sender filed the report or is its contact.
func reachable(r *models.Report, sender string) bool {
	if r.Reporter == sender {
		return true
	}
	return r.ContactPhone != "" && samePhone(r.ContactPhone, sender)
}

// samePhone compares two phone numbers by their digits. Numbers written in
// local and international form match on their last ten digits.
func samePhone(a, b string) bool {
	da, db := digits(a), digits(b)
	if da == "" || db == "" {
		return false
	}
	if da == db {
		return true
	}
	const national = 10
	if len(da) < national || len(db) < national {
		return false
	}
	return da[len(da)-national:] == db[len(db)-national:]
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
