package format

import (
	"strings"

	"tgbridge/pkg/telegram"
)

// statusRules are checked in order; the first substring match wins.
var statusRules = []struct {
	marker string
	label  string
}{
	{"Online", "online"},
	{"Recently", "recently"},
	{"LastWeek", "last_week"},
	{"LastMonth", "last_month"},
	{"Offline", "offline"},
}

// Status is the presence summary of one user.
type Status struct {
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	RawStatus string `json:"raw_status"`
}

// StatusLabel maps a raw presence tag onto a fixed label, falling back to the
// lower-cased tag when it matches none of them.
func StatusLabel(raw string) string {
	for _, rule := range statusRules {
		if strings.Contains(raw, rule.marker) {
			return rule.label
		}
	}

	return strings.ToLower(raw)
}

// FormatStatus builds the presence summary of an entity. Groups and channels
// have no presence and report "Unknown".
func FormatStatus(entity telegram.Entity) Status {
	raw := telegram.PresenceUnknown.RawTag()
	if user, ok := entity.(*telegram.User); ok {
		raw = user.Status.RawTag()
	}

	return Status{
		UserID:    entity.EntityID(),
		Status:    StatusLabel(raw),
		RawStatus: raw,
	}
}
