package telegram

// Presence is the closed set of user status variants reported by the platform.
type Presence int

const (
	// PresenceUnknown means the platform sent no status at all.
	PresenceUnknown Presence = iota
	PresenceEmpty
	PresenceOnline
	PresenceOffline
	PresenceRecently
	PresenceLastWeek
	PresenceLastMonth
)

// RawTag returns the platform's type name for the status.
func (p Presence) RawTag() string {
	switch p {
	case PresenceEmpty:
		return "UserStatusEmpty"
	case PresenceOnline:
		return "UserStatusOnline"
	case PresenceOffline:
		return "UserStatusOffline"
	case PresenceRecently:
		return "UserStatusRecently"
	case PresenceLastWeek:
		return "UserStatusLastWeek"
	case PresenceLastMonth:
		return "UserStatusLastMonth"
	default:
		return "Unknown"
	}
}
