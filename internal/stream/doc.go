// Package stream contains the real-time transfer core: the paced frame
// transmitter and the controller that ties the pipeline lifecycle to the
// peer's subscription state. The controller's event entry points are the only
// way the host environment starts or stops streaming.
package stream
