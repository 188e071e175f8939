// Package store defines the persistence contracts used by the services:
// Firestore-style document paths, the generic document Repository, the user
// store, transaction helpers and the sentinel errors every implementation
// returns.
package store
