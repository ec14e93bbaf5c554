package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportType enum
type ReportType string

const (
	Lost  ReportType = "lost"
	Found ReportType = "found"
)

// ResolutionStatus names the flag a report is resolved with
type ResolutionStatus string

const (
	Recovered ResolutionStatus = "recovered"
	Claimed   ResolutionStatus = "claimed"
)

// NoDescription is stored when the reporter leaves the description out
const NoDescription = "No description"

// Report represents a lost or found item reported through the bot
type Report struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type             ReportType         `bson:"type" json:"type"`
	Item             string             `bson:"item" json:"item"`
	Location         string             `bson:"location" json:"location"`
	Description      string             `bson:"description" json:"description"`
	ContactPhone     string             `bson:"contact_phone,omitempty" json:"contactPhone,omitempty"`
	ImageURL         string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	Reporter         string             `bson:"reporter" json:"reporter"`
	Timestamp        time.Time          `bson:"timestamp" json:"timestamp"`
	VerificationCode string             `bson:"verification_code" json:"-"`
	Claimed          bool               `bson:"claimed,omitempty" json:"claimed,omitempty"`
	ClaimedAt        *time.Time         `bson:"claimed_at,omitempty" json:"claimedAt,omitempty"`
	Recovered        bool               `bson:"recovered,omitempty" json:"recovered,omitempty"`
	RecoveredAt      *time.Time         `bson:"recovered_at,omitempty" json:"recoveredAt,omitempty"`
}

// StatusFor returns the resolution flag that applies to a report type.
func StatusFor(t ReportType) ResolutionStatus {
	if t == Found {
		return Claimed
	}
	return Recovered
}

// Status returns the resolution flag for this report.
func (r *Report) Status() ResolutionStatus {
	return StatusFor(r.Type)
}

// Resolved reports whether the report's resolution flag has been set.
func (r *Report) Resolved() bool {
	if r.Type == Found {
		return r.Claimed
	}
	return r.Recovered
}

// ResolvedAt returns the time the report was resolved, if it was.
func (r *Report) ResolvedAt() *time.Time {
	if r.Type == Found {
		return r.ClaimedAt
	}
	return r.RecoveredAt
}

// ResolutionUpdate builds the partial update that marks a report resolved.
func ResolutionUpdate(status ResolutionStatus, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		string(status):         true,
		string(status) + "_at": at,
	}
}
