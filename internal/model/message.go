package model

import "time"

type Contact struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Schedule is one entry of the remote scheduled-message listing. NextSend is
// nil once the schedule has fired.
type Schedule struct {
	ID         int64              `json:"id"`
	NextSend   *time.Time         `json:"nextSend"`
	Parameters ScheduleParameters `json:"parameters"`
}

type ScheduleParameters struct {
	Recipients ScheduleRecipients `json:"recipients"`
}

type ScheduleRecipients struct {
	Contacts []int64 `json:"contacts"`
}

type Template struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ScheduledMessage is the confirmation returned for one create call.
type ScheduledMessage struct {
	ID         int64  `json:"id"`
	Href       string `json:"href"`
	Type       string `json:"type"`
	ScheduleID int64  `json:"scheduleId"`
}

type Recipient struct {
	ContactID int64
	Phone     string
}
