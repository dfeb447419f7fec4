package friend

import (
	"time"

	"github.com/google/uuid"
)

// Status is the state of a friend request.
type Status string

// Request states.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Request is a friendship request between two users. An accepted request is
// the friendship itself; friendship is symmetric even though the row keeps
// its direction.
type Request struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FromID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair;index" json:"from_id"`
	ToID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair;index" json:"to_id"`
	Status Status    `gorm:"size:16;not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Request.
func (Request) TableName() string {
	return "friend_requests"
}
