package model

import "time"

// CustomerModel mirrors the 'customers' table.
type CustomerModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(100);not null;index"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string `gorm:"type:varchar(50)"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (CustomerModel) TableName() string {
	return "customers"
}
