package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Client is a newsletter client row.
type Client struct {
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
	Industry      string `json:"industry"`
	ClientGoal    string `json:"client_goal"`
	JCIRole       string `json:"jci_role"`
	Keywords      string `json:"keywords"`
	SpecificURLs  string `json:"specific_urls"`
	SendTime      string `json:"send_time"`
	Timezone      string `json:"timezone"`
	AnalysisStyle string `json:"analysis_style"`
	Active        string `json:"active"`
}

// ClientFromRow reads a client out of a header-keyed row.
func ClientFromRow(r Row) Client {
	return Client{
		ClientID:      r.Get("client_id"),
		ClientName:    r.Get("client_name"),
		Industry:      r.Get("industry"),
		ClientGoal:    r.Get("client_goal"),
		JCIRole:       r.Get("jci_role"),
		Keywords:      r.Get("keywords"),
		SpecificURLs:  r.Get("specific_urls"),
		SendTime:      r.Get("send_time"),
		Timezone:      r.Get("timezone"),
		AnalysisStyle: r.Get("analysis_style"),
		Active:        r.Get("active"),
	}
}

// Record converts the client into an ordered write record.
func (c Client) Record() *Record {
	return NewRecord().
		Set("client_id", c.ClientID).
		Set("client_name", c.ClientName).
		Set("industry", c.Industry).
		Set("client_goal", c.ClientGoal).
		Set("jci_role", c.JCIRole).
		Set("keywords", c.Keywords).
		Set("specific_urls", c.SpecificURLs).
		Set("send_time", c.SendTime).
		Set("timezone", c.Timezone).
		Set("analysis_style", c.AnalysisStyle).
		Set("active", c.Active)
}

const clientIDPrefix = "client_"

// NextClientID returns client_NNN one past the highest numeric suffix in use.
func NextClientID(existing []Client) string {
	maxN := 0
	for _, c := range existing {
		suffix, ok := strings.CutPrefix(c.ClientID, clientIDPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		maxN = max(maxN, n)
	}
	return fmt.Sprintf("%s%03d", clientIDPrefix, maxN+1)
}

// ParseURLList splits a comma separated list, trimming entries and dropping
// empty ones.
func ParseURLList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeURLList de-duplicates (case-insensitively, first occurrence wins)
// and rejoins with ", ".
func NormalizeURLList(s string) string {
	seen := make(map[string]struct{})
	var kept []string
	for _, u := range ParseURLList(s) {
		key := strings.ToLower(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, u)
	}
	return strings.Join(kept, ", ")
}
