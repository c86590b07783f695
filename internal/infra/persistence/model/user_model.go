package model

import "time"

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Username       string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email          string `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName      string `gorm:"type:varchar(100)"`
	LastName       string `gorm:"type:varchar(100)"`
	Phone          string `gorm:"type:varchar(50)"`
	HashedPassword string `gorm:"type:varchar(255);not null"`
	Role           string `gorm:"type:varchar(20);not null;index"`
	IsActive       bool   `gorm:"not null"`
	CustomerID     *uint  `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
