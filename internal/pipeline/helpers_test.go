package pipeline

import (
	"github.com/nao1215/reviewscan/internal/browser/browsertest"
	"github.com/nao1215/reviewscan/internal/crawler"
	"github.com/nao1215/reviewscan/internal/model"
)

const testBaseURL = "https://maps.example/maps"

// site scripts a directory with a landing page, search results and
// location detail pages.
type site struct {
	sel   crawler.Selectors
	pages map[string]*browsertest.Page
}

func newSite() *site {
	sel := crawler.DefaultSelectors()
	return &site{
		sel: sel,
		pages: map[string]*browsertest.Page{
			testBaseURL: {
				Elements: map[string][]*browsertest.Node{
					sel.SearchInput: {browsertest.TextNode("")},
				},
			},
		},
	}
}

// search registers the result page of task listing links.
func (s *site) search(task model.SearchTask, links ...string) {
	nodes := make([]*browsertest.Node, 0, len(links))
	for _, l := range links {
		nodes = append(nodes, browsertest.LinkNode(l))
	}
	s.pages[browsertest.SearchKey(task.Query())] = &browsertest.Page{
		Elements: map[string][]*browsertest.Node{s.sel.ResultItem: nodes},
		Extents:  map[string][]int{s.sel.ResultsPane: {800, 1200, 1200}},
	}
}

// location registers a detail page named name. Each review is a
// {text, date} pair.
func (s *site) location(link, name string, reviews ...[2]string) {
	nodes := make([]*browsertest.Node, 0, len(reviews))
	for _, r := range reviews {
		nodes = append(nodes, browsertest.ParentNode(map[string]*browsertest.Node{
			s.sel.ReviewText: browsertest.TextNode(r[0]),
			s.sel.ReviewDate: browsertest.TextNode(r[1]),
		}))
	}
	s.pages[link] = &browsertest.Page{
		Elements: map[string][]*browsertest.Node{
			s.sel.LocationName:    {browsertest.TextNode(name)},
			s.sel.LocationAddress: {browsertest.TextNode(name + " address")},
			s.sel.LocationRating:  {browsertest.TextNode("4.1")},
			s.sel.ReviewItem:      nodes,
		},
		Extents: map[string][]int{s.sel.ReviewsPane: {1000, 1000}},
	}
}

// blank registers a detail page that loads but never shows a name.
func (s *site) blank(link string) {
	s.pages[link] = &browsertest.Page{}
}

func (s *site) agent() *browsertest.Agent {
	return browsertest.NewAgent(s.pages)
}

// testSettings returns settings that never sleep.
func testSettings() Settings {
	s := DefaultSettings()
	s.BaseURL = testBaseURL
	s.ResultPauseMin, s.ResultPauseMax = 0, 0
	s.ReviewPause = 0
	s.ThrottleMin, s.ThrottleMax = 0, 0
	s.ExpandPause = 0
	return s
}
