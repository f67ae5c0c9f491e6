package model

import "time"

// Entity is implemented by every stored resource.
type Entity interface {
	GetID() string
	SetID(id string)
	Stamp(now time.Time)
	TableName() string
}

// Base carries the identity and bookkeeping columns shared by all
// resources. IDs are UUID strings assigned by the store on create.
type Base struct {
	ID        string    `json:"id" bson:"_id" gorm:"column:id;type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" gorm:"column:created_at;not null;index"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" gorm:"column:updated_at;not null"`
}

func (b *Base) GetID() string { return b.ID }

func (b *Base) SetID(id string) { b.ID = id }

// Stamp sets the creation time on first save and the update time always.
func (b *Base) Stamp(now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
