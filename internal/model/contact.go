package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// EntryType classifies an email or phone entry.
type EntryType string

const (
	EntryWork  EntryType = "work"
	EntryHome  EntryType = "home"
	EntryOther EntryType = "other"
)

// EmailEntry is one element of a contact's email JSONB array.
type EmailEntry struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// PhoneEntry is one element of a contact's phone JSONB array.
type PhoneEntry struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Contact represents a person record in the PostgreSQL database.
// Contacts cannot exist without an organization (no orphans) and always
// carry an account manager.
type Contact struct {
	ID               string         `json:"id" gorm:"primaryKey;type:text"`
	Name             string         `json:"name,omitempty" gorm:"type:text"` // computed from first + last
	FirstName        string         `json:"first_name" gorm:"type:text" validate:"required"`
	LastName         string         `json:"last_name,omitempty" gorm:"type:text"`
	Email            datatypes.JSON `json:"email,omitempty" gorm:"type:jsonb"` // array of {value, type}
	Phone            datatypes.JSON `json:"phone,omitempty" gorm:"type:jsonb"` // array of {value, type}
	Title            string         `json:"title,omitempty" gorm:"type:text"`
	Department       string         `json:"department,omitempty" gorm:"type:text"`
	LinkedinURL      string         `json:"linkedin_url,omitempty" gorm:"type:text"`
	OrganizationID   string         `json:"organization_id" gorm:"index;type:text" validate:"required"`
	SalesID          string         `json:"sales_id" gorm:"index;type:text" validate:"required"`
	SecondarySalesID string         `json:"secondary_sales_id,omitempty" gorm:"type:text"`
	ManagerID        string         `json:"manager_id,omitempty" gorm:"type:text"`
	Notes            string         `json:"notes,omitempty" gorm:"type:text"`
	Address          string         `json:"address,omitempty" gorm:"type:text"`
	City             string         `json:"city,omitempty" gorm:"type:text"`
	State            string         `json:"state,omitempty" gorm:"type:text"`
	PostalCode       string         `json:"postal_code,omitempty" gorm:"type:text"`
	Country          string         `json:"country,omitempty" gorm:"type:text"`
	Birthday         *time.Time     `json:"birthday,omitempty" gorm:"type:date"`
	Gender           string         `json:"gender,omitempty" gorm:"type:text"`
	Tags             datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`
	Status           string         `json:"status,omitempty" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Contact model, respecting the Namer.
func (Contact) TableName(namer schema.Namer) string {
	return namer.TableName("contacts")
}

// Sale represents an account manager (sales user) referenced by contacts and
// opportunities.
type Sale struct {
	ID        string     `json:"id" gorm:"primaryKey;type:text"`
	FirstName string     `json:"first_name,omitempty" gorm:"type:text"`
	LastName  string     `json:"last_name,omitempty" gorm:"type:text"`
	Email     string     `json:"email,omitempty" gorm:"type:text"`
	Disabled  bool       `json:"disabled,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Sale model, respecting the Namer.
func (Sale) TableName(namer schema.Namer) string {
	return namer.TableName("sales")
}
