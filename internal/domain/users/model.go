package users

import (
	"strings"
	"time"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// User is an app user as returned by the API. The detail endpoint also
// embeds the user's insurance cards and order history.
type User struct {
	apiclient.Identity
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	BirthDate      string        `json:"birthDate,omitempty"`
	Points         int           `json:"points"`
	InsuranceCards []CardSummary `json:"insuranceCards,omitempty"`
	Orders         []OrderLine   `json:"orders,omitempty"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
}

// DisplayName falls back to the email when the user has no name.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// CardSummary is a registered insurance card on the user detail page.
type CardSummary struct {
	apiclient.Identity
	CompanyName  string `json:"companyName"`
	PolicyNumber string `json:"policyNumber"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	Status       string `json:"status,omitempty"`
}

// StatusLabel defaults to active when the API omits the status.
func (c CardSummary) StatusLabel() string {
	if c.Status == "" {
		return "active"
	}
	return c.Status
}

// OrderLine is one row of a user's order history.
type OrderLine struct {
	apiclient.Identity
	MedicineName string     `json:"medicineName"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// ShortID is the last six characters of the order id.
func (o OrderLine) ShortID() string {
	id := o.ID()
	if len(id) > 6 {
		return id[len(id)-6:]
	}
	return id
}

// Genders are the selectable values of Profile.Gender.
var Genders = []string{"male", "female", "other"}

// Profile is the editable part of a user.
type Profile struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Gender string `json:"gender,omitempty"`
}
