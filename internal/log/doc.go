// Package log provides the structured logger used by recipecrawl, built on
// top of the standard slog package.
//
// This package extends slog to provide:
//   - A SafeHandler that masks credentials embedded in URLs and shortens
//     oversized attribute values such as markup fragments
//   - Configurable log levels with verbose mode support
//   - An optional rotating log file next to the console output
//
// # Usage
//
//	logger, closer, err := log.NewLogger(log.Options{
//	    Writer:  os.Stderr,
//	    Verbose: true,
//	    File:    "/var/log/recipecrawl/crawl.log",
//	})
//	defer closer.Close()
//	slog.SetDefault(logger)
package log
