package store

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	ID                    string
	Name                  string
	OwnerProjectManagerID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Debate statuses.
const (
	DebateStatusActive   = "active"
	DebateStatusResolved = "resolved"
	DebateStatusArchived = "archived"
)

type Debate struct {
	ID            string
	ProjectID     string
	Title         string
	Description   *string
	Status        string
	Position      float64
	RepliesTotal  int
	CreatorUserID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DebateReply struct {
	ID            string
	DebateID      string
	Body          string
	CreatorUserID *string
	CreatedAt     time.Time
}

type InfoCard struct {
	ID             string
	ProjectID      string
	Title          string
	Content        *string
	Importance     int
	Position       float64
	AssignedUserID *string
	CreatorUserID  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Attachment struct {
	ID            string
	InfoCardID    string
	Name          string
	ContentType   string
	Size          int64
	ObjectKey     string
	CreatorUserID *string
	CreatedAt     time.Time
}

// NullableString is a patch field that distinguishes absent from an
// explicit null: Set false leaves the column untouched, Set true with a nil
// Value clears it.
type NullableString struct {
	Set   bool
	Value *string
}

// DebatePatch carries the allow-listed mutable debate fields. Nil (or unset)
// fields are left untouched. Position is a raw overwrite; siblings are never
// renumbered.
type DebatePatch struct {
	Title       *string
	Description NullableString
	Status      *string
	Position    *float64
}

// InfoCardPatch carries the allow-listed mutable info card fields.
type InfoCardPatch struct {
	Title          *string
	Content        NullableString
	Importance     *int
	AssignedUserID NullableString
	Position       *float64
}
