package model

import "time"

// MessagingWindow is the daily span messages may be sent in. It is split into
// SubWindows equal contiguous partitions starting at StartHour:StartMinute.
type MessagingWindow struct {
	StartHour   int
	StartMinute int
	Duration    time.Duration
	SubWindows  int
}

type CampaignPlan struct {
	ParticipantID  int
	Window         MessagingWindow
	StartDelayDays int
	DurationDays   int
}

// MessageCount is the number of sends a plan produces.
func (p CampaignPlan) MessageCount() int {
	return p.Window.SubWindows * p.DurationDays
}

// PlanSummary is what the operator sees before confirming a campaign.
type PlanSummary struct {
	ParticipantID int
	Recipient     Recipient
	MessageCount  int
	StartHour     int
	StartMinute   int
	Dates         []time.Time
}
