package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Username  string    `gorm:"uniqueIndex" json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Password  string    `json:"-"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`
}

type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SubscriberID uuid.UUID `gorm:"uniqueIndex:idx_subscriber_author" json:"subscriber_id"`
	AuthorID     uuid.UUID `gorm:"uniqueIndex:idx_subscriber_author" json:"author_id"`
	CreatedAt    time.Time `gorm:"type:timestamp" json:"created_at"`

	Subscriber *User `gorm:"foreignKey:SubscriberID"`
	Author     *User `gorm:"foreignKey:AuthorID"`
}
