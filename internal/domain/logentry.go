package domain

// LogEntry is one delivery attempt written by the external sender.
type LogEntry struct {
	Timestamp        string `json:"timestamp"`
	ClientID         string `json:"client_id"`
	ClientName       string `json:"client_name"`
	RecipientsSent   string `json:"recipients_sent"`
	RecipientsFailed string `json:"recipients_failed"`
	Status           string `json:"status"`
	Details          string `json:"details"`
}

// LogEntryFromRow reads a log entry out of a row.
func LogEntryFromRow(r Row) LogEntry {
	return LogEntry{
		Timestamp:        r.Get("timestamp"),
		ClientID:         r.Get("client_id"),
		ClientName:       r.Get("client_name"),
		RecipientsSent:   r.Get("recipients_sent"),
		RecipientsFailed: r.Get("recipients_failed"),
		Status:           r.Get("status"),
		Details:          r.Get("details"),
	}
}
