package model

import "strconv"

// CSVHeader is the column header of the output artifact, in order.
var CSVHeader = []string{
	"Banque",
	"Ville",
	"Nom Agence",
	"Localisation",
	"Note",
	"Avis",
	"Date Avis",
}

// OutputRow is one flattened (location, review) record.
// Locations without reviews produce no rows.
type OutputRow struct {
	Organization    string `json:"organization"`
	City            string `json:"city"`
	LocationName    string `json:"location_name"`
	LocationAddress string `json:"location_address"`
	LocationRating  string `json:"location_rating"`
	ReviewText      string `json:"review_text"`
	ReviewDate      string `json:"review_date"`

	// The fields below are not part of the CSV artifact. They identify the
	// row inside a run and are stored in the crawl database.

	// Link is the detail page the row was extracted from.
	Link string `json:"link"`

	// ReviewIndex is the position of the review on the detail page.
	ReviewIndex int `json:"review_index"`

	// Language is the detected language of ReviewText.
	Language Language `json:"language"`
}

// NewOutputRows flattens a location and its reviews into output rows.
func NewOutputRows(task SearchTask, link LocationLink, loc *Location, reviews []Review) []OutputRow {
	rows := make([]OutputRow, 0, len(reviews))
	for i, r := range reviews {
		rows = append(rows, OutputRow{
			Organization:    task.Organization,
			City:            task.City,
			LocationName:    loc.Name,
			LocationAddress: loc.Address,
			LocationRating:  loc.Rating,
			ReviewText:      r.Text,
			ReviewDate:      r.Date,
			Link:            link.URL,
			ReviewIndex:     i,
			Language:        r.Language,
		})
	}
	return rows
}

// Record returns the row as CSV fields in CSVHeader order.
func (r OutputRow) Record() []string {
	return []string{
		r.Organization,
		r.City,
		r.LocationName,
		r.LocationAddress,
		r.LocationRating,
		r.ReviewText,
		r.ReviewDate,
	}
}

// Key identifies the row within a run: one detail page, one review position.
func (r OutputRow) Key() string {
	return r.Link + "#" + strconv.Itoa(r.ReviewIndex)
}
