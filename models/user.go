package models

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Address is stored as a JSON column on users and orders.
type Address struct {
	FullName   string `json:"fullName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	FirstName           string     `gorm:"size:100" json:"firstName"`
	LastName            string     `gorm:"size:100" json:"lastName"`
	Email               string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"size:255" json:"-"`
	HasLocalPassword    bool       `gorm:"not null;default:false" json:"hasPassword"`
	Phone               string     `gorm:"size:50" json:"phone"`
	Avatar              string     `gorm:"size:500" json:"avatar"`
	Address             Address    `gorm:"serializer:json;type:text" json:"address"`
	Role                string     `gorm:"size:20;not null;default:customer" json:"role"`
	IsActive            bool       `gorm:"not null;default:true" json:"isActive"`
	IsVerified          bool       `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken   string     `gorm:"size:100;index" json:"-"`
	VerificationExpires *time.Time `json:"-"`
	GoogleID            *string    `gorm:"size:100;uniqueIndex" json:"googleId,omitempty"`
	FacebookID          *string    `gorm:"size:100;uniqueIndex" json:"facebookId,omitempty"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`

	Orders []Order `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasOAuth reports whether the account is linked to at least one provider.
func (u *User) HasOAuth() bool {
	return (u.GoogleID != nil && *u.GoogleID != "") || (u.FacebookID != nil && *u.FacebookID != "")
}
