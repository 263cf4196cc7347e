package app

import (
	"net/mail"
	"strings"
	"time"

	"clientportal/internal/domain"
)

var analysisStyles = map[string]bool{"brief": true, "executive": true, "detailed": true}

func validateClient(c domain.Client) error {
	var v ValidationError
	if strings.TrimSpace(c.ClientID) == "" {
		v.add("client_id", "is required")
	}
	if c.SendTime != "" && !validSendTime(c.SendTime) {
		v.add("send_time", "must be HH:MM (24h)")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			v.add("timezone", "unknown time zone")
		}
	}
	if c.AnalysisStyle != "" && !analysisStyles[c.AnalysisStyle] {
		v.add("analysis_style", "must be brief, executive or detailed")
	}
	if c.Active != "" && !validFlag(c.Active) {
		v.add("active", "must be TRUE or FALSE")
	}
	return v.orNil()
}

func validateRecipient(r domain.Recipient) error {
	var v ValidationError
	if strings.TrimSpace(r.ClientID) == "" {
		v.add("client_id", "is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		v.add("email", "is required")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		v.add("email", "is not a valid address")
	}
	if r.Active != "" && !validFlag(r.Active) {
		v.add("active", "must be TRUE or FALSE")
	}
	return v.orNil()
}

func validSendTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func validFlag(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}
