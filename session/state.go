package session

import (
	"fmt"

	"lostfound-bot/models"
)

// Action tags stored with each session.
const (
	ActionReportLost          = "report_lost"
	ActionReportFound         = "report_found"
	ActionSearch              = "search"
	ActionSelectReport        = "select_report"
	ActionVerifyCode          = "verify_code"
	ActionUpdateStatus        = "update_status"
	ActionConfirmStatusUpdate = "confirm_status_update"
)

// FoundStep is the sub-phase of a found-item intake.
type FoundStep string

const (
	AwaitingImage   FoundStep = "awaiting_image"
	AwaitingDetails FoundStep = "awaiting_details"
)

// State is one live dialog state. A sender with no stored session is in the
// top-level menu and has a nil State.
type State interface {
	Action() string
}

type ReportLost struct{}

type ReportFound struct {
	Step     FoundStep
	ImageURL string
}

type Search struct{}

// SelectReport holds the sender's reports in the order they were listed.
type SelectReport struct {
	ReportIDs []string
}

type VerifyCode struct {
	ReportID string
	Status   models.ResolutionStatus
}

type UpdateStatus struct{}

// ConfirmStatusUpdate holds the reports offered for quick resolution.
type ConfirmStatusUpdate struct {
	ReportIDs []string
}

func (ReportLost) Action() string          { return ActionReportLost }
func (ReportFound) Action() string         { return ActionReportFound }
func (Search) Action() string              { return ActionSearch }
func (SelectReport) Action() string        { return ActionSelectReport }
func (VerifyCode) Action() string          { return ActionVerifyCode }
func (UpdateStatus) Action() string        { return ActionUpdateStatus }
func (ConfirmStatusUpdate) Action() string { return ActionConfirmStatusUpdate }

// Encode flattens a state into its stored record.
func Encode(sender string, state State) *models.SessionRecord {
	record := &models.SessionRecord{Sender: sender, Action: state.Action()}
	switch s := state.(type) {
	case ReportFound:
		record.Step = string(s.Step)
		record.ImageURL = s.ImageURL
	case SelectReport:
		record.ReportIDs = append([]string(nil), s.ReportIDs...)
	case VerifyCode:
		record.ReportID = s.ReportID
		record.StatusType = string(s.Status)
	case ConfirmStatusUpdate:
		record.ReportIDs = append([]string(nil), s.ReportIDs...)
	}
	return record
}

// Decode rebuilds a state from its stored record.
func Decode(record *models.SessionRecord) (State, error) {
	switch record.Action {
	case ActionReportLost:
		return ReportLost{}, nil
	case ActionReportFound:
		step := FoundStep(record.Step)
		if step == "" {
			step = AwaitingImage
		}
		if step != AwaitingImage && step != AwaitingDetails {
			return nil, fmt.Errorf("session %s: unknown step %q", record.Sender, record.Step)
		}
		return ReportFound{Step: step, ImageURL: record.ImageURL}, nil
	case ActionSearch:
		return Search{}, nil
	case ActionSelectReport:
		return SelectReport{ReportIDs: record.ReportIDs}, nil
	case ActionVerifyCode:
		if record.ReportID == "" {
			return nil, fmt.Errorf("session %s: verify_code without report", record.Sender)
		}
		return VerifyCode{ReportID: record.ReportID, Status: models.ResolutionStatus(record.StatusType)}, nil
	case ActionUpdateStatus:
		return UpdateStatus{}, nil
	case ActionConfirmStatusUpdate:
		return ConfirmStatusUpdate{ReportIDs: record.ReportIDs}, nil
	}
	return nil, fmt.Errorf("session %s: unknown action %q", record.Sender, record.Action)
}
