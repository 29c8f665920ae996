// Package server implements the HTTP surface of the service: the websocket
// endpoint that carries the audio subscription and the monitoring/management
// endpoints for health, status, configuration and Prometheus metrics.
package server
