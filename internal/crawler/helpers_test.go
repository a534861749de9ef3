package crawler

import (
	"github.com/nao1215/reviewscan/internal/browser/browsertest"
)

const testBaseURL = "https://maps.example/maps"

// landingPage returns a search page with a query box.
func landingPage(sel Selectors) *browsertest.Page {
	return &browsertest.Page{
		Elements: map[string][]*browsertest.Node{
			sel.SearchInput: {browsertest.TextNode("")},
		},
	}
}

// resultPage returns a search result page listing hrefs.
func resultPage(sel Selectors, hrefs ...string) *browsertest.Page {
	nodes := make([]*browsertest.Node, 0, len(hrefs))
	for _, h := range hrefs {
		nodes = append(nodes, browsertest.LinkNode(h))
	}
	return &browsertest.Page{
		Elements: map[string][]*browsertest.Node{sel.ResultItem: nodes},
		Extents:  map[string][]int{sel.ResultsPane: {800, 1200, 1200}},
	}
}

// reviewNode returns a review element with text and date.
func reviewNode(sel Selectors, text, date string) *browsertest.Node {
	return browsertest.ParentNode(map[string]*browsertest.Node{
		sel.ReviewText: browsertest.TextNode(text),
		sel.ReviewDate: browsertest.TextNode(date),
	})
}

// detailPage returns a location page with the given fields and reviews.
// Empty field values are left off the page.
func detailPage(sel Selectors, name, address, rating string, reviews ...*browsertest.Node) *browsertest.Page {
	elements := map[string][]*browsertest.Node{
		sel.ReviewItem: reviews,
	}
	if name != "" {
		elements[sel.LocationName] = []*browsertest.Node{browsertest.TextNode(name)}
	}
	if address != "" {
		elements[sel.LocationAddress] = []*browsertest.Node{browsertest.TextNode(address)}
	}
	if rating != "" {
		elements[sel.LocationRating] = []*browsertest.Node{browsertest.TextNode(rating)}
	}
	return &browsertest.Page{
		Elements: elements,
		Extents:  map[string][]int{sel.ReviewsPane: {1000, 1000}},
	}
}
