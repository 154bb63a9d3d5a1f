package telegram

// Entity is a closed variant over the peers the platform knows: *User, *Group
// and *Channel. No other implementations exist.
type Entity interface {
	EntityID() int64
	Kind() EntityKind
	isEntity()
}

// EntityKind names the variant of an Entity.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindGroup   EntityKind = "chat"
	KindChannel EntityKind = "channel"
)

// KnownPeer is an access hash remembered from an earlier session.
type KnownPeer struct {
	Kind       EntityKind
	ID         int64
	AccessHash int64
}

// User is a person or bot account.
type User struct {
	ID         int64
	AccessHash int64
	FirstName  string
	LastName   string
	Username   string
	Phone      string
	Bot        bool
	Self       bool
	Status     Presence
}

// Group is a basic (legacy) group chat.
type Group struct {
	ID    int64
	Title string
}

// Channel is a broadcast channel or a supergroup.
type Channel struct {
	ID         int64
	AccessHash int64
	Title      string
	Username   string
	Megagroup  bool
}

func (u *User) EntityID() int64    { return u.ID }
func (g *Group) EntityID() int64   { return g.ID }
func (c *Channel) EntityID() int64 { return c.ID }

func (*User) Kind() EntityKind    { return KindUser }
func (*Group) Kind() EntityKind   { return KindGroup }
func (*Channel) Kind() EntityKind { return KindChannel }

func (*User) isEntity()    {}
func (*Group) isEntity()   {}
func (*Channel) isEntity() {}
