// Package velodyne decodes Velodyne data packets and assembles them into
// scans.
//
// Three sensors are supported: VLP-16, HDL-32E and VLP-32C. The model is read
// from the factory byte of the first packet in a capture and selects a
// Profile (packets per scan, firing layout, beam timing and the vertical
// angle table). Unknown hardware is logged and decoded with the HDL-32E
// profile.
//
// A Session ties a capture.Reader to an Assembler; tests can drive an
// Assembler directly from any PacketSource.
package velodyne
