package telegram

import "strings"

// MediaKind is the closed set of attachment kinds a message can carry.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaDocument
	MediaGeo
	MediaGeoLive
	MediaVenue
	MediaContact
	MediaWebPage
	MediaGame
	MediaInvoice
	MediaPoll
	MediaDice
	MediaStory
	MediaGiveaway
	MediaUnsupported
	// MediaOther covers kinds added to the platform after this list was written.
	MediaOther
)

var mediaTags = map[MediaKind]string{
	MediaPhoto:       "MessageMediaPhoto",
	MediaDocument:    "MessageMediaDocument",
	MediaGeo:         "MessageMediaGeo",
	MediaGeoLive:     "MessageMediaGeoLive",
	MediaVenue:       "MessageMediaVenue",
	MediaContact:     "MessageMediaContact",
	MediaWebPage:     "MessageMediaWebPage",
	MediaGame:        "MessageMediaGame",
	MediaInvoice:     "MessageMediaInvoice",
	MediaPoll:        "MessageMediaPoll",
	MediaDice:        "MessageMediaDice",
	MediaStory:       "MessageMediaStory",
	MediaGiveaway:    "MessageMediaGiveaway",
	MediaUnsupported: "MessageMediaUnsupported",
}

// Media describes a message attachment without decoding it.
type Media struct {
	Kind MediaKind
	// Tag is the platform's type name for MediaOther.
	Tag string
}

// Present reports whether the message carries any attachment.
func (m Media) Present() bool {
	return m.Kind != MediaNone
}

// Label returns the platform type name of the attachment, e.g. "MessageMediaPhoto".
func (m Media) Label() string {
	switch m.Kind {
	case MediaNone:
		return ""
	case MediaOther:
		return TypeTag(m.Tag)
	default:
		return mediaTags[m.Kind]
	}
}

// TypeTag converts a TL constructor name ("messageMediaPhoto") into the
// class-name form used in responses ("MessageMediaPhoto").
func TypeTag(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	return strings.ToUpper(name[:1]) + name[1:]
}
