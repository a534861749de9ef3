// Package config provides the configuration of a reviewscan run: the
// organizations and cities to crawl, browser and pacing settings, report
// preferences and the YAML configuration file that supplies them.
package config
