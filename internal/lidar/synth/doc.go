// Package synth produces synthetic Velodyne capture containers for tests and
// for the gen-capture tool.
//
// Frames are built with gopacket's layer serialisation so that checksums and
// lengths match what a real sensor emits. Containers are written with pcapgo,
// except where a header must carry a version, byte order or record length
// that pcapgo does not produce; WriteRawCapture covers those cases.
package synth
