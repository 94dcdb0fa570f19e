// Package store defines the records and repository interfaces the site reads
// and writes (redirect rules, contact submissions, published content paths).
// Implementations live in internal/storage; this package must not import
// database drivers or concrete clients.
package store
