package model

import "strings"

// RawRecord is one unit as delivered by a collaborator (roster export row or
// listing page). Every field is optional: nil means the source did not carry
// it, which is distinct from a field that was present but blank in the
// original text. Use Opt to build fields from untrusted strings.
type RawRecord struct {
	Type         *string `json:"type,omitempty"`
	Number       *string `json:"number,omitempty"`
	Locality     *string `json:"locality,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Address      *string `json:"address,omitempty"`
	Description  *string `json:"description,omitempty"`

	MeetingDay  *string `json:"meeting_day,omitempty"`
	MeetingTime *string `json:"meeting_time,omitempty"`
	Specialty   *string `json:"specialty,omitempty"`

	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Website *string `json:"website,omitempty"`
}

// Opt returns a pointer to the trimmed value, or nil when s is blank.
func Opt(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Val dereferences an optional field, returning "" for nil.
func Val(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Has reports whether an optional field is present and non-blank.
func Has(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

// LiteralID is the identifier a listing batch uses to drop repeated entries:
// the type, number and organization text exactly as typed.
func (r RawRecord) LiteralID() string {
	return Val(r.Type) + "|" + Val(r.Number) + "|" + Val(r.Organization)
}

// Fields returns pointers to every optional field in declaration order.
func (r *RawRecord) Fields() []**string {
	return []**string{
		&r.Type, &r.Number, &r.Locality, &r.Organization, &r.Address, &r.Description,
		&r.MeetingDay, &r.MeetingTime, &r.Specialty,
		&r.Email, &r.Phone, &r.Contact, &r.Website,
	}
}
