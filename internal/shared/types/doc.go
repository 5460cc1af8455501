// Package types provides shared data structures for the server manager.
//
// This package defines the core types used across all components,
// ensuring consistent shapes between the registry, the kind
// implementations, the configuration store, and the HTTP surface.
//
// Core Types:
//   - Kind: application kind discriminator (tomcat, springboot)
//   - Status: instance lifecycle status (running, preparing, stop)
//   - Property: one configuration key/value with a changeable flag
//   - AppConfig: persisted per-instance configuration record
//   - Stats: registry statistics
package types
