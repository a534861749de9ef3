// Package report writes crawl output.
//
// This package contains:
//   - WriteCSV / ReadCSV: the semicolon-delimited, UTF-8 (with BOM) review artifact
//   - CSVFile: a crawler.Persister that writes the artifact atomically
//   - SimpleWriter: human-readable run summary for terminal display
//   - JSONWriter: structured run summary for tool integration
//   - MarkdownWriter: run summary as GitHub Flavored Markdown
//
// Summary writers implement the Writer interface and can be composed with
// MultiWriter.
package report
