package domain

import "strings"

type UserProfile struct {
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"first_name"`
	MiddleInitial string `json:"middle_initial"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Birthdate     string `json:"birthdate"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
}

// FullName joins the non-empty name parts with single spaces.
func (p UserProfile) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleInitial, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ShippingAddress renders the recipient name and address as printed on the
// checkout page.
func (p UserProfile) ShippingAddress() string {
	name := p.FullName()
	switch {
	case name == "":
		return p.Address
	case p.Address == "":
		return name
	default:
		return name + "\n" + p.Address
	}
}
