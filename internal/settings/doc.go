// Package settings defines the contract shared by every setting item of the
// launcher and the errors returned by the settings subsystem.
//
// # Scopes
//
// Settings live in one global store and any number of scoped stores, one per
// registered modpack workspace:
//
//	┌──────────────────────────────┐
//	│  scope 3 (.../pack/rev)      │  ← explicit overrides only
//	├──────────────────────────────┤
//	│  global (-1, setting.json)   │  ← every item always present
//	└──────────────────────────────┘
//
// A scoped field either inherits the global value or owns an override. The
// first change made through a scope copies the current global value, applies
// the change to the copy and keeps the copy; the global store is never
// touched by a scoped change.
//
// # Sub-packages
//
//   - java, jvm: concrete setting items
//   - schema: the field table used for dispatch by item name
//   - store: global Store and scoped Overrides resolution
//   - registry: scope routing, persistence and locking
//   - notify: change notification
//
// # Error Handling
//
//   - ErrNotFound: unknown item name
//   - ErrScopeNotFound: unknown scope id
//   - ErrParse: malformed version, number or persisted JSON
//   - ErrIO: file read/write failure
//   - ErrUnsupported: an item refused a change request
package settings
