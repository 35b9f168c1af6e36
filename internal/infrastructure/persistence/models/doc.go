// Package models contains the persistence shapes of the estimate sheet.
//
// Domain types carry no storage concerns. This package holds:
//   - kv_entry.go: the GORM row behind the SQL key-value store
//   - state_records.go: the JSON documents stored under each key, with
//     mappers to and from the domain types
//
// The JSON field names are part of the stored format; renaming one orphans
// data already saved under it.
package models
