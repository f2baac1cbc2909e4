package domain

// Address is one entry of a user's encrypted address list. The whole list
// is serialized to JSON and stored as a single AES-GCM token, so individual
// addresses have no rows of their own. IDs are server-generated uuids.
type Address struct {
	ID           string `json:"id"`
	Label        string `json:"label,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code"`
	Phone        string `json:"phone,omitempty"`
	IsDefault    bool   `json:"is_default"`
}

// AddressPatch carries the fields of an address update. Nil pointers leave
// the stored value untouched.
type AddressPatch struct {
	Label        *string `json:"label,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	CountryCode  *string `json:"country_code,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	IsDefault    *bool   `json:"is_default,omitempty"`
}

// Apply overwrites the address fields for which the patch carries a value.
func (p *AddressPatch) Apply(a *Address) {
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.AddressLine1 != nil {
		a.AddressLine1 = *p.AddressLine1
	}
	if p.AddressLine2 != nil {
		a.AddressLine2 = *p.AddressLine2
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.CountryCode != nil {
		a.CountryCode = *p.CountryCode
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
}
