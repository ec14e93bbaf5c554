// Package dialog runs the per-sender conversation: it reads the sender's
// session, applies one inbound message to it and returns the replies.
//
// Every message yields at least one reply. Store failures and other
// unexpected errors are logged and answered with a generic message, and the
// session is left as it was so the sender can retry the same step.
package dialog

import (
	"context"
	"time"

	"lostfound-bot/matcher"
	"lostfound-bot/media"
	"lostfound-bot/session"
	"lostfound-bot/store"
	"lostfound-bot/verification"

	"github.com/sirupsen/logrus"
)

// DefaultMaxMatches caps the matches appended to a lost report confirmation.
const DefaultMaxMatches = 5

const maxSearchResults = 10

// Inbound is one message received from a sender.
type Inbound struct {
	Sender string
	Body   string
	Media  []media.Attachment
}

// Options are the deployment choices the conversation depends on.
type Options struct {
	BotName          string
	ImageIntake      bool
	SearchMode       matcher.SearchMode
	SearchScope      matcher.SearchScope
	MaxMatches       int
	LegacyStatusFlow bool
}

// Deps are the collaborators an Engine drives.
type Deps struct {
	Reports  store.Reports
	Stories  store.Stories
	Sessions *session.Manager
	Matcher  *matcher.Matcher
	Verifier *verification.Engine
	Ingestor *media.Ingestor
	Now      func() time.Time
	Log      logrus.FieldLogger
}

type Engine struct {
	reports  store.Reports
	stories  store.Stories
	sessions *session.Manager
	matcher  *matcher.Matcher
	verifier *verification.Engine
	ingestor *media.Ingestor
	opts     Options
	msg      messages
	now      func() time.Time
	log      logrus.FieldLogger
}

func New(deps Deps, opts Options) *Engine {
	if opts.BotName == "" {
		opts.BotName = DefaultBotName
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultMaxMatches
	}
	if opts.SearchMode == "" {
		opts.SearchMode = matcher.SearchExact
	}
	if opts.SearchScope == "" {
		opts.SearchScope = matcher.ScopeFound
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := deps.Matcher
	if m == nil {
		m = matcher.New(matcher.ModeWeighted, now)
	}
	v := deps.Verifier
	if v == nil {
		v = verification.NewEngine(deps.Reports, now)
	}
	return &Engine{
		reports:  deps.Reports,
		stories:  deps.Stories,
		sessions: deps.Sessions,
		matcher:  m,
		verifier: v,
		ingestor: deps.Ingestor,
		opts:     opts,
		msg:      messages{bot: opts.BotName, legacy: opts.LegacyStatusFlow},
		now:      now,
		log:      log,
	}
}

// effect is what happens to the session once a message has been handled.
type effect int

const (
	keep effect = iota
	save
	drop
)

type outcome struct {
	replies []string
	effect  effect
	next    session.State
}

func stay(replies ...string) outcome {
	return outcome{replies: replies, effect: keep}
}

func moveTo(next session.State, replies ...string) outcome {
	return outcome{replies: replies, effect: save, next: next}
}

func finish(replies ...string) outcome {
	return outcome{replies: replies, effect: drop}
}

// Handle applies one inbound message and returns the replies to send.
func (e *Engine) Handle(ctx context.Context, in Inbound) []string {
	log := e.log.WithField("sender", in.Sender)

	state, err := e.sessions.Load(ctx, in.Sender)
	if err != nil {
		log.WithError(err).Error("failed to load session")
		return []string{e.msg.genericError()}
	}
	if state != nil {
		log = log.WithField("action", state.Action())
	}

	out, err := e.dispatch(ctx, in.Sender, state, ParseCommand(in))
	if err != nil {
		log.WithError(err).Error("failed to handle message")
		return []string{e.msg.genericError()}
	}

	switch out.effect {
	case save:
		if err := e.sessions.Save(ctx, in.Sender, out.next); err != nil {
			log.WithError(err).Error("failed to save session")
			return []string{e.msg.genericError()}
		}
	case drop:
		// The step already took effect; a stale session is left to the sweep.
		if err := e.sessions.Clear(ctx, in.Sender); err != nil {
			log.WithError(err).Warn("failed to clear session")
		}
	}
	return out.replies
}

func (e *Engine) dispatch(ctx context.Context, sender string, state session.State, cmd Command) (outcome, error) {
	switch cmd.Kind {
	case CmdCancel:
		return finish(e.msg.cancelled()), nil
	case CmdMenu:
		if state == nil {
			return stay(e.msg.menu()), nil
		}
		return finish(e.msg.menu()), nil
	}

	switch s := state.(type) {
	case nil:
		return e.topLevel(ctx, sender, cmd)
	case session.ReportLost:
		return e.reportLost(ctx, sender, cmd)
	case session.ReportFound:
		return e.reportFound(ctx, sender, s, cmd)
	case session.Search:
		return e.search(ctx, cmd)
	case session.SelectReport:
		return e.selectReport(ctx, sender, s, cmd)
	case session.VerifyCode:
		return e.verifyCode(ctx, sender, s, cmd)
	case session.UpdateStatus:
		return e.updateStatus(ctx, sender, cmd)
	case session.ConfirmStatusUpdate:
		return e.confirmStatusUpdate(ctx, sender, s, cmd)
	}
	return finish(e.msg.invalidCommand()), nil
}

func (e *Engine) topLevel(ctx context.Context, sender string, cmd Command) (outcome, error) {
	switch cmd.Kind {
	case CmdReportLost:
		return moveTo(session.ReportLost{}, e.msg.lostPrompt()), nil
	case CmdReportFound:
		if e.opts.ImageIntake {
			return moveTo(session.ReportFound{Step: session.AwaitingImage}, e.msg.imagePrompt()), nil
		}
		return moveTo(session.ReportFound{Step: session.AwaitingDetails}, e.msg.foundDetailsPrompt()), nil
	case CmdSearch:
		return moveTo(session.Search{}, e.msg.searchPrompt()), nil
	case CmdMyReports:
		return e.myReports(ctx, sender)
	case CmdMarkStatus:
		if e.opts.LegacyStatusFlow {
			return moveTo(session.UpdateStatus{}, e.msg.statusPrompt()), nil
		}
	}
	return stay(e.msg.invalidCommand()), nil
}
