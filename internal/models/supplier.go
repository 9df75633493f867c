package models

import "time"

// Supplier owns zero or more supplies; contact email is unique.
type Supplier struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:200;not null"`
	ContactPerson string `gorm:"size:200;not null"`
	ContactEmail  string `gorm:"size:254;not null;uniqueIndex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
