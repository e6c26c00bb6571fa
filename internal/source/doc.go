// Package source describes the records returned by a network controller and
// the client used to fetch them.
//
// Records mirror the controller's JSON shape closely and carry both json and
// yaml tags so a captured dump can be replayed through FileClient. The
// helpers in this package interpret controller-specific fields (additional
// info namespaces, platform ids, port speed) without touching the graph.
package source
