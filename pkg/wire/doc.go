// Package wire implements the node side of the host link protocol:
// line framing over the serial byte stream, command parsing and telemetry
// encoding, one JSON object per direction per cycle.
package wire

// The protocol is deliberately primitive so four node variants share it
// unchanged. Host to node: a flat JSON object mapping device identifiers
// to integer command values, terminated by LF or CR. Node to host: one
// JSON object per cycle carrying the node identity plus any status, error
// and echoed value entries buffered during the cycle.
//
// Buffers are statically sized. A message that does not fit is surfaced
// downstream as a JSON parse failure, not as a separate overflow error,
// so the host sees one error class for every malformed line.
