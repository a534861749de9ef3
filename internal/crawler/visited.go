package crawler

import (
	"sync"

	"github.com/nao1215/reviewscan/internal/model"
)

// VisitedSet records the location links already visited in a run.
// It only grows; entries are never removed.
type VisitedSet struct {
	// visited tracks links by their exact URL string.
	visited map[string]struct{}

	// mutex makes check-and-insert atomic across workers.
	mutex sync.Mutex
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{visited: make(map[string]struct{})}
}

// ShouldVisit reports whether link has not been visited yet and, if so,
// marks it visited. A link is marked before its page is loaded, so a
// failed visit is not retried later in the run.
func (v *VisitedSet) ShouldVisit(link model.LocationLink) bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if _, ok := v.visited[link.URL]; ok {
		return false
	}
	v.visited[link.URL] = struct{}{}
	return true
}

// Len returns the number of visited links.
func (v *VisitedSet) Len() int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return len(v.visited)
}
