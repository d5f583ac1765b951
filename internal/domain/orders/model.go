package orders

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/healthcare/admin-dashboard/internal/platform/apiclient"
)

// Status is the approval state of a medicine order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDelivered Status = "delivered"
)

// Statuses lists every order status in filter-tab order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusDelivered}

// ParseStatus reports whether s is a known order status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusDelivered:
		return Status(s), true
	}
	return "", false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusDelivered:
		return "Delivered"
	}
	return "Unknown"
}

// Customer is the ordering user. The API sends either an embedded user or
// a bare user id.
type Customer struct {
	apiclient.Identity
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (c *Customer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = Customer{Identity: apiclient.Identity{RawID: id}}
		return nil
	}
	type plain Customer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Customer(p)
	return nil
}

// Order is a medicine order as returned by the API.
type Order struct {
	apiclient.Identity
	MedicineName      string     `json:"medicineName"`
	Quantity          int        `json:"quantity"`
	Dosage            string     `json:"dosage,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	DeliveryAddress   string     `json:"deliveryAddress,omitempty"`
	PrescriptionImage string     `json:"prescriptionImage,omitempty"`
	Status            Status     `json:"status"`
	AdminNotes        string     `json:"adminNotes,omitempty"`
	User              *Customer  `json:"user,omitempty"`
	UserID            *Customer  `json:"userId,omitempty"`
	UserName          string     `json:"userName,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// Customer returns whichever user reference the API supplied, or nil.
func (o *Order) Customer() *Customer {
	switch {
	case o.User != nil:
		return o.User
	case o.UserID != nil:
		return o.UserID
	case o.UserName != "":
		return &Customer{Name: o.UserName}
	}
	return nil
}

func (o *Order) CustomerName() string {
	if c := o.Customer(); c != nil && c.Name != "" {
		return c.Name
	}
	return "Unknown"
}

// ShortID is the last six characters of the order id, as shown in lists.
func (o *Order) ShortID() string {
	id := o.ID()
	if len(id) > 6 {
		return id[len(id)-6:]
	}
	return id
}

func (o *Order) IsPending() bool { return o.Status == StatusPending }

// Stats counts orders per status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Delivered int `json:"delivered"`
}

// Count returns the count for one status.
func (s Stats) Count(st Status) int {
	switch st {
	case StatusPending:
		return s.Pending
	case StatusApproved:
		return s.Approved
	case StatusRejected:
		return s.Rejected
	case StatusDelivered:
		return s.Delivered
	}
	return 0
}

// CountByStatus tallies orders locally.
func CountByStatus(items []*Order) Stats {
	s := Stats{Total: len(items)}
	for _, o := range items {
		switch o.Status {
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusDelivered:
			s.Delivered++
		}
	}
	return s
}
