// Package app holds the application registry and the contract every
// managed application kind satisfies.
//
// The Registry owns the in-memory cache of live application handles and is
// the single source of truth for which instances exist. Reconciliation
// (LoadFromConfigurations) merges persisted configuration records with the
// cache without re-initializing instances that are already loaded, prunes
// invalid records from the store, and preserves user-edited changeable
// properties across reloads.
//
// Concrete kinds implement Runnable; kinds that can check whether a path
// holds a valid installation additionally implement SourceValidator.
package app
