package crawler

// Selectors are the CSS selectors used to read the directory pages.
// The directory's markup changes without notice, so every selector can be
// overridden from the configuration file.
type Selectors struct {
	// SearchInput is the query box on the landing page.
	SearchInput string `yaml:"searchInput,omitempty"`

	// ConsentButtons accept a cookie consent dialog, if one is shown.
	ConsentButtons []string `yaml:"consentButtons,omitempty"`

	// ResultItem matches one search result; its href is the location link.
	ResultItem string `yaml:"resultItem,omitempty"`

	// ResultsPane is the scrollable result list.
	ResultsPane string `yaml:"resultsPane,omitempty"`

	// LocationName marks a loaded detail page and holds the name.
	LocationName string `yaml:"locationName,omitempty"`

	// LocationAddress holds the address on a detail page.
	LocationAddress string `yaml:"locationAddress,omitempty"`

	// LocationRating holds the aggregate rating on a detail page.
	LocationRating string `yaml:"locationRating,omitempty"`

	// MoreReviews is the control that loads more reviews.
	MoreReviews string `yaml:"moreReviews,omitempty"`

	// ReviewsPane is the scrollable review list. Empty scrolls the document.
	ReviewsPane string `yaml:"reviewsPane,omitempty"`

	// ReviewItem matches one review.
	ReviewItem string `yaml:"reviewItem,omitempty"`

	// ReviewText and ReviewDate are looked up inside a ReviewItem.
	ReviewText string `yaml:"reviewText,omitempty"`
	ReviewDate string `yaml:"reviewDate,omitempty"`
}

// DefaultSelectors returns the selectors matching the current Google Maps markup.
func DefaultSelectors() Selectors {
	return Selectors{
		SearchInput: `input[name="q"]`,
		ConsentButtons: []string{
			`button[aria-label="Tout accepter"]`,
			`button[aria-label="Accept all"]`,
			`button[aria-label="I agree"]`,
			`button[jsname="b3VHJd"]`,
		},
		ResultItem:      ".hfpxzc",
		ResultsPane:     ".m6QErb",
		LocationName:    ".DUwDvf",
		LocationAddress: ".Io6YTe",
		LocationRating:  ".fontDisplayLarge",
		MoreReviews:     ".w8nwRe",
		ReviewsPane:     "",
		ReviewItem:      ".jftiEf",
		ReviewText:      ".wiI7pd",
		ReviewDate:      ".rsqaWe",
	}
}

// Merge returns s with every non-empty field of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.SearchInput, override.SearchInput)
	set(&s.ResultItem, override.ResultItem)
	set(&s.ResultsPane, override.ResultsPane)
	set(&s.LocationName, override.LocationName)
	set(&s.LocationAddress, override.LocationAddress)
	set(&s.LocationRating, override.LocationRating)
	set(&s.MoreReviews, override.MoreReviews)
	set(&s.ReviewsPane, override.ReviewsPane)
	set(&s.ReviewItem, override.ReviewItem)
	set(&s.ReviewText, override.ReviewText)
	set(&s.ReviewDate, override.ReviewDate)
	if len(override.ConsentButtons) > 0 {
		s.ConsentButtons = override.ConsentButtons
	}
	return s
}
