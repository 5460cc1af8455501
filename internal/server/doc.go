// Package server assembles the service: the persisted store, the kind
// table, the registry, the log stream hub and the HTTP control surface.
//
// Startup order:
//  1. Load configuration from environment
//  2. Initialize the logger
//  3. Open the workspace configuration store
//  4. Build the registry over the kind table and reconcile once
//  5. Serve the control API until shutdown
package server
