// Package geo supplies position fixes to the reporter.
//
// FileSource follows a JSON-lines feed, either hand-written fixes or the
// TPV reports gpsd emits, using fsnotify on the feed's directory.
// StaticSource serves a fixed position given on the command line.
package geo
