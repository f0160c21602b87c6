// Package capture reads libpcap capture containers recorded from Velodyne
// sensors.
//
// The reader understands the four magic-number encodings of the container
// (microsecond and nanosecond resolution, each in either byte order) and
// classifies every record by its original length: sensor data packets,
// GPS/position packets, or anything else, which is skipped without being
// interpreted.
//
// Only sequential reads are performed. The single exception is PeekHeaders,
// which samples record headers ahead of the current position and seeks back.
package capture
