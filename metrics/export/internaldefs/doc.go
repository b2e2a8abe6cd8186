// Package internaldefs holds the metric names and bucket layout shared by the
// Prometheus and OTel exporters, so both expose identical series.
//
// It performs no I/O and does not import any exporter package.
package internaldefs
