// Package pipeline runs the crawl of search tasks.
//
// Each (organization, city) task goes through a Pipeline of steps: a
// DiscoverStep that searches the directory and lists location links, then
// a VisitStep that extracts every new location and its reviews. Steps
// record non-critical failures in the task report and keep going.
//
// BatchProcessor runs tasks concurrently with errgroup, one browser agent
// per running task, and Driver wires the crawler components for every
// agent. A transport failure ends the whole run; the rows collected so far
// stay in the session sink.
package pipeline
