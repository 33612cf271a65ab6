package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// The messaging service writes offsets without a colon ("+0000").
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

func (s *Schedule) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         int64              `json:"id"`
		NextSend   *string            `json:"nextSend"`
		Parameters ScheduleParameters `json:"parameters"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	s.ID = raw.ID
	s.Parameters = raw.Parameters
	s.NextSend = nil
	if raw.NextSend == nil || *raw.NextSend == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *raw.NextSend); err == nil {
			s.NextSend = &t
			return nil
		}
	}
	return fmt.Errorf("schedule %d: invalid nextSend %q", raw.ID, *raw.NextSend)
}
