package models

import "time"

// Address is a shared, deduplicated geocoded address. Rows are keyed by the
// normalized formatted string and linked to users through user_addresses.
// Latitude/Longitude are nullable until the address is geocoded; the geog
// column mirrors them as a PostGIS point for radius queries.
type Address struct {
	ID         string    `db:"id" json:"id"`
	Formatted  string    `db:"formatted" json:"formatted"`
	RawPayload []byte    `db:"raw_payload" json:"-"`
	PostalCode *string   `db:"postal_code" json:"postal_code,omitempty"`
	Latitude   *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Geocoded reports whether the address carries a coordinate.
func (a *Address) Geocoded() bool {
	return a != nil && a.Latitude != nil && a.Longitude != nil
}

// Coordinate is a geocoded point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
