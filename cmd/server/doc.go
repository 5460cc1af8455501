// Command server runs the local application manager: it reconciles the
// workspace's persisted server configurations on startup and serves the
// control API until interrupted.
package main
