// Package views stores named queries.
//
// A view is a query text with a name. Other queries reference it by name in
// source position: `SELECT photos WHERE rating > 3` compiles the text of the
// view "photos" and adds the predicate.
//
// STORAGE:
//
// Repository holds the views in memory as an immutable snapshot replaced on
// every change, so lookups never block. Directory loads and saves views as
// .vql files (one query per file, file stem = view name). LoadCatalog reads
// views from a CUE catalog:
//
//	view: photos: {
//		query:       "SELECT \"photos/**/*.jpg\""
//		description: "all photos"
//	}
//
// Watcher reloads a Directory into a Repository when its files change.
//
// OBSERVERS:
//
// Subscribe registers a function called after every change with the kind of
// change and the view name. Observers run synchronously on the goroutine
// that made the change, after the new snapshot is visible.
package views
