package model

import "strings"

// SearchTask is one (organization, city) pair of the crawl cross-product.
// Tasks are immutable and consumed once per run.
type SearchTask struct {
	// Organization is the brand or institution being searched (e.g., a bank name).
	Organization string `json:"organization"`

	// City is the geographic qualifier appended to the query.
	City string `json:"city"`
}

// NewSearchTask creates a SearchTask with surrounding whitespace removed.
func NewSearchTask(organization, city string) SearchTask {
	return SearchTask{
		Organization: strings.TrimSpace(organization),
		City:         strings.TrimSpace(city),
	}
}

// Query returns the free-text query submitted to the directory search box.
func (t SearchTask) Query() string {
	return t.Organization + " " + t.City
}

// String implements fmt.Stringer.
func (t SearchTask) String() string {
	return t.Query()
}

// CrossProduct builds one task per (organization, city) pair.
// Organizations form the outer loop, cities the inner loop, and the input
// order is preserved.
func CrossProduct(organizations, cities []string) []SearchTask {
	tasks := make([]SearchTask, 0, len(organizations)*len(cities))
	for _, org := range organizations {
		for _, city := range cities {
			tasks = append(tasks, NewSearchTask(org, city))
		}
	}
	return tasks
}

// LocationLink identifies a single location detail page.
// Two links are the same location exactly when their URL strings are equal.
type LocationLink struct {
	URL string `json:"url"`
}

// String implements fmt.Stringer.
func (l LocationLink) String() string {
	return l.URL
}
