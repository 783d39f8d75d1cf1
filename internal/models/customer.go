package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerType classifies a customer account
type CustomerType string

const (
	CustomerTypeEnterprise CustomerType = "Enterprise"
	CustomerTypeSMB        CustomerType = "SMB"
	CustomerTypeStartup    CustomerType = "Startup"
)

// Valid reports whether t is one of the known customer types
func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeEnterprise, CustomerTypeSMB, CustomerTypeStartup:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail reports whether email matches the basic mailbox pattern
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Address is the postal address of a customer
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Customer represents a buying account
type Customer struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string       `gorm:"not null;index" json:"name"`
	Region    string       `gorm:"not null;index;index:idx_customers_region_type,priority:1" json:"region"`
	Type      CustomerType `gorm:"not null;index:idx_customers_region_type,priority:2" json:"type"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Address   Address      `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	IsActive  bool         `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// BeforeCreate assigns an identity when the caller did not
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// FullAddress joins the non-empty address parts
func (c *Customer) FullAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{c.Address.Street, c.Address.City, c.Address.State, c.Address.ZipCode, c.Address.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// CreateCustomerRequest is the payload accepted by POST /api/customers
type CreateCustomerRequest struct {
	Name    string       `json:"name"`
	Region  string       `json:"region"`
	Type    CustomerType `json:"type"`
	Email   string       `json:"email"`
	Phone   string       `json:"phone"`
	Address Address      `json:"address"`
}
