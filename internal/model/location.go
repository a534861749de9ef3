package model

// Sentinel values used when a location field cannot be read from the page.
// They are written to the output artifact verbatim.
const (
	UnknownName     = "unknown name"
	UnknownLocation = "unknown location"
	UnknownRating   = "0"
)

// Field names recorded in Location.Missing.
const (
	FieldName    = "name"
	FieldAddress = "address"
	FieldRating  = "rating"
)

// Location holds the fields extracted from one location detail page.
// A Location is only produced after a successful navigation, so every
// field is populated with either the extracted text or its sentinel.
type Location struct {
	// Name is the displayed name of the location.
	Name string `json:"name"`

	// Address is the displayed address text.
	Address string `json:"address"`

	// Rating is the displayed aggregate rating, kept as raw text.
	Rating string `json:"rating"`

	// Missing lists the fields that fell back to their sentinel value.
	// A sentinel "0" rating cannot otherwise be told apart from a real one.
	Missing []string `json:"missing,omitempty"`
}

// NewLocation returns a Location with every field set to its sentinel.
func NewLocation() *Location {
	return &Location{
		Name:    UnknownName,
		Address: UnknownLocation,
		Rating:  UnknownRating,
	}
}

// MarkMissing records that field fell back to its sentinel.
func (l *Location) MarkMissing(field string) {
	l.Missing = append(l.Missing, field)
}

// IsMissing reports whether field fell back to its sentinel.
func (l *Location) IsMissing(field string) bool {
	for _, m := range l.Missing {
		if m == field {
			return true
		}
	}
	return false
}
