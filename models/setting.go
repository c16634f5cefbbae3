package models

import "time"

const (
	SettingTypeString  = "string"
	SettingTypeNumber  = "number"
	SettingTypeBoolean = "boolean"
	SettingTypeJSON    = "json"
)

type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Key         string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Type        string    `gorm:"size:20;not null;default:string" json:"type"`
	Description string    `gorm:"size:255" json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
