package domain

// Project is a tracked on-chain entity (a protocol, a DEX, a token issuer).
// Corresponds to the project table in PostgreSQL. Derived metrics are kept in
// the open-ended attribute bag, one row per key.
type Project struct {
	ID              int64  // PRIMARY KEY
	Name            string // unique display name
	Token           string // fully-qualified token type of the project token
	Category        string // e.g. "DEX"
	ContractAddress string // main on-chain contract account
	CreatedAt       int64  // Unix timestamp in milliseconds
	UpdatedAt       int64  // Unix timestamp in milliseconds
	Attributes      []Attribute
}

// Attribute is one entry of a project's attribute bag.
type Attribute struct {
	Key   string
	Value Value
}

// Attribute returns the attribute for key, or false if absent.
func (p *Project) Attribute(key string) (Value, bool) {
	for _, a := range p.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return Value{}, false
}

// IntAttribute returns the integer value of an attribute, or false if the
// attribute is absent or not an integer.
func (p *Project) IntAttribute(key string) (int64, bool) {
	v, ok := p.Attribute(key)
	if !ok || v.Type != TypeInteger {
		return 0, false
	}
	return v.Int, true
}
