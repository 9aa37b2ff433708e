// Package bench provides a programmatic API for running udpbench
// measurements.
//
// Callers can measure a single fixed-rate round with Run, search for the
// maximum sustainable packet rate with FindMax, measure latency across a set
// of rates with Sweep, and verify connectivity with CheckUDP/CheckICMP.
package bench
