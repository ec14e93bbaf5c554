package dialog

import (
	"context"
	"errors"
	"fmt"

	"lostfound-bot/matcher"
	"lostfound-bot/media"
	"lostfound-bot/models"
	"lostfound-bot/parser"
	"lostfound-bot/session"
	"lostfound-bot/verification"

	"github.com/sirupsen/logrus"
)

func (e *Engine) reportLost(ctx context.Context, sender string, cmd Command) (outcome, error) {
	report, err := parser.Parse(cmd.Text, models.Lost, "")
	if err != nil {
		return e.formatError(models.Lost, err)
	}
	if err := e.create(ctx, sender, report); err != nil {
		return outcome{}, err
	}

	log := e.log.WithFields(logrus.Fields{"sender": sender, "report": report.ID.Hex()})
	found, err := e.reports.FindReports(ctx, "type", models.Found)
	if err != nil {
		// The report is saved; only the match listing is lost.
		log.WithError(err).Error("failed to load found reports for matching")
		return finish(e.msg.reportSaved(report)), nil
	}
	matches := e.matcher.Match(report.Item, found)
	if len(matches) > e.opts.MaxMatches {
		matches = matches[:e.opts.MaxMatches]
	}

	log.WithField("matches", len(matches)).Info("lost report created")
	return finish(e.msg.reportSaved(report) + "\n\n" + e.msg.matches(matches)), nil
}

func (e *Engine) reportFound(ctx context.Context, sender string, s session.ReportFound, cmd Command) (outcome, error) {
	if s.Step == session.AwaitingImage {
		if len(cmd.Media) == 0 {
			return stay(e.msg.imageRequired()), nil
		}
		return e.ingestImage(ctx, sender, cmd.Media)
	}

	report, err := parser.Parse(cmd.Text, models.Found, s.ImageURL)
	if err != nil {
		return e.formatError(models.Found, err)
	}
	if err := e.create(ctx, sender, report); err != nil {
		return outcome{}, err
	}

	e.log.WithFields(logrus.Fields{
		"sender":    sender,
		"report":    report.ID.Hex(),
		"has_image": report.ImageURL != "",
	}).Info("found report created")
	return finish(e.msg.reportSaved(report)), nil
}

func (e *Engine) ingestImage(ctx context.Context, sender string, attachments []media.Attachment) (outcome, error) {
	if e.ingestor == nil {
		return stay(e.msg.imageFailed()), nil
	}
	uri, err := e.ingestor.Ingest(ctx, attachments)
	if err == nil {
		next := session.ReportFound{Step: session.AwaitingDetails, ImageURL: uri}
		return moveTo(next, e.msg.imageReceived()), nil
	}

	e.log.WithField("sender", sender).WithError(err).Warn("image intake failed")
	switch {
	case errors.Is(err, media.ErrTimeout):
		return stay(e.msg.imageTimeout()), nil
	case errors.Is(err, media.ErrNotFound):
		return stay(e.msg.imageNotFound()), nil
	case errors.Is(err, media.ErrEmpty):
		return stay(e.msg.imageEmpty()), nil
	case errors.Is(err, media.ErrNotImage):
		return stay(e.msg.imageNotImage()), nil
	}
	return stay(e.msg.imageFailed()), nil
}

func (e *Engine) formatError(t models.ReportType, err error) (outcome, error) {
	var formatErr *parser.FormatError
	if !errors.As(err, &formatErr) {
		return outcome{}, err
	}
	return stay(e.msg.formatError(t)), nil
}

// create stamps a parsed report with its reporter, time and code and
// persists it.
func (e *Engine) create(ctx context.Context, sender string, report *models.Report) error {
	report.Reporter = sender
	report.Timestamp = e.now().UTC()
	report.VerificationCode = verification.GenerateCode()
	if _, err := e.reports.CreateReport(ctx, report); err != nil {
		return fmt.Errorf("create %s report: %w", report.Type, err)
	}
	return nil
}

func (e *Engine) search(ctx context.Context, cmd Command) (outcome, error) {
	var (
		reports []models.Report
		err     error
	)
	if e.opts.SearchScope == matcher.ScopeAll {
		reports, err = e.reports.ListReports(ctx)
	} else {
		reports, err = e.reports.FindReports(ctx, "type", models.Found)
	}
	if err != nil {
		return outcome{}, fmt.Errorf("load reports for search: %w", err)
	}

	hits := matcher.Search(cmd.Text, reports, e.opts.SearchMode)
	if len(hits) == 0 {
		return finish(e.msg.noResults(cmd.Text)), nil
	}
	more := 0
	if len(hits) > maxSearchResults {
		more = len(hits) - maxSearchResults
		hits = hits[:maxSearchResults]
	}
	return finish(e.msg.searchResults(cmd.Text, hits, more)), nil
}
