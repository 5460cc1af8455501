// Package ws streams application process output to WebSocket clients. The
// hub fans each log line out to every connection subscribed to the
// originating application.
package ws
