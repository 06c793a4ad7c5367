// Package config provides configuration structures and utilities for recipecrawl.
// It defines the catalog source, crawl bounds, politeness settings, and the
// locations of the dataset, history database and logs.
package config
