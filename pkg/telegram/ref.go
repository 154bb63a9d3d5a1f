package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// channelMarkOffset separates channel IDs from basic group IDs in marked form.
const channelMarkOffset = 1_000_000_000_000

// Ref is a reference to a chat or user as it appears in a request path.
type Ref struct {
	Raw     string
	Numeric bool
	ID      int64
	Handle  string
}

// ParseRef classifies a reference. Anything made only of digits, optionally
// after a single leading '-', is a numeric ID; everything else is a handle.
func ParseRef(raw string) (Ref, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Ref{}, NewError(KindInvalid, "parse reference", fmt.Errorf("empty chat reference"))
	}

	if isNumeric(value) {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Ref{}, NewError(KindInvalid, "parse reference", fmt.Errorf("chat id %q out of range", value))
		}
		return Ref{Raw: value, Numeric: true, ID: id}, nil
	}

	return Ref{Raw: value, Handle: value}, nil
}

func isNumeric(value string) bool {
	digits := strings.TrimPrefix(value, "-")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func (r Ref) String() string {
	return r.Raw
}

// UnmarkID splits a marked numeric ID into its kind and bare platform ID.
// Positive IDs are users, -100xxxxxxxxxxxx are channels, other negatives
// are basic groups.
func UnmarkID(marked int64) (EntityKind, int64) {
	switch {
	case marked >= 0:
		return KindUser, marked
	case marked <= -channelMarkOffset:
		return KindChannel, -marked - channelMarkOffset
	default:
		return KindGroup, -marked
	}
}

// MarkID is the inverse of UnmarkID.
func MarkID(kind EntityKind, id int64) int64 {
	switch kind {
	case KindChannel:
		return -(channelMarkOffset + id)
	case KindGroup:
		return -id
	default:
		return id
	}
}
