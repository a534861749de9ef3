// Package main provides the entry point for the reviewscan CLI.
//
// reviewscan crawls the public reviews of bank branches from the Google Maps
// directory. Every configured bank is searched in every configured city, each
// branch found is visited once, and its reviews are written to a
// semicolon-separated CSV file.
//
// Usage:
//
//	reviewscan init
//	reviewscan crawl
//	reviewscan load --dsn postgres://...
//
// See --help for all available options.
package main

// main is the entry point for reviewscan.
func main() {
	Execute()
}
