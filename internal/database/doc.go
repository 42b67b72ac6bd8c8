// Package database provides SQLite-based storage for the analysis history.
//
// The AnalysisDB stores every completed analysis together with its token
// counts, keyed by the absolute document path, so that the history command
// can list past runs and compare any two of them.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver. The database
// lives in a single file under the XDG data directory.
package database
