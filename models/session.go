package models

import "time"

// SessionRecord is the stored form of a sender's conversation state. Only
// the fields that belong to Action are populated.
type SessionRecord struct {
	Sender     string    `bson:"_id" json:"sender"`
	Action     string    `bson:"action" json:"action"`
	Step       string    `bson:"step,omitempty" json:"step,omitempty"`
	ImageURL   string    `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	ReportIDs  []string  `bson:"report_ids,omitempty" json:"reportIds,omitempty"`
	ReportID   string    `bson:"report_id,omitempty" json:"reportId,omitempty"`
	StatusType string    `bson:"status_type,omitempty" json:"statusType,omitempty"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}
