// Package events owns the temporal-difference event data model.
//
// Responsibilities: the Event record produced by DVS/ATIS sensors, the
// immutable Stream snapshot that carries events together with the sensor
// frame bounds, and the error kinds shared by the codec packages.
//
// Dependency rule: events depends on nothing else in this module. The
// codec (nmnist, jaer), transform and render packages all build on it and
// never on each other. sink sits on top of render; stats and catalog read
// streams directly.
package events
