package crawler

// Session holds the state shared by every worker of one crawl run.
type Session struct {
	// Visited gates location visits across all tasks and workers.
	Visited *VisitedSet

	// Sink collects the output rows of the run.
	Sink *ResultSink
}

// NewSession creates a Session with an empty visited set and sink.
func NewSession() *Session {
	return &Session{
		Visited: NewVisitedSet(),
		Sink:    NewResultSink(),
	}
}
