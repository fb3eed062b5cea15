package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
type Base struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created"`
	UpdatedAt time.Time      `json:"modified"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// Submission is a form submission that passed spam screening.
type Submission struct {
	Base
	Form     string  `json:"form"      gorm:"index;not null"`
	Fields   JSONMap `json:"fields"    gorm:"type:json;serializer:json"`
	RemoteIP string  `json:"remote_ip"`
	Referer  string  `json:"referer"`
	SpamMeta JSONMap `json:"spam_meta" gorm:"type:json;serializer:json"`
}

func (Submission) TableName() string { return "submissions" }

// JSONMap stores loosely-typed field bags as JSON columns.
type JSONMap map[string]interface{}
