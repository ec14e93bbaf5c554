package dialog

import (
	"strings"

	"lostfound-bot/media"
)

// CommandKind is the meaning of an inbound message before state is applied.
type CommandKind int

const (
	// CmdText is free text (or media) for the current sub-dialog.
	CmdText CommandKind = iota
	CmdMenu
	CmdCancel
	CmdReportLost
	CmdReportFound
	CmdSearch
	CmdMyReports
	CmdMarkStatus
)

var keywords = map[string]CommandKind{
	"menu":   CmdMenu,
	"cancel": CmdCancel,
	"0":      CmdCancel,
	"1":      CmdReportLost,
	"2":      CmdReportFound,
	"3":      CmdSearch,
	"4":      CmdMyReports,
	"5":      CmdMarkStatus,
	"mark":   CmdMarkStatus,
}

// Command is an inbound message parsed once. Text keeps the sender's
// original case; only keyword recognition is case-folded.
type Command struct {
	Kind  CommandKind
	Text  string
	Media []media.Attachment
}

// ParseCommand classifies an inbound message.
func ParseCommand(in Inbound) Command {
	text := strings.TrimSpace(in.Body)
	cmd := Command{Kind: CmdText, Text: text, Media: in.Media}
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		cmd.Kind = kind
	}
	return cmd
}

// Global reports whether the command applies whatever the current state.
func (c Command) Global() bool {
	return c.Kind == CmdMenu || c.Kind == CmdCancel
}
