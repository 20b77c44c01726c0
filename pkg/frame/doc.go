// Package frame provides the line protocol between the host sender and
// the display device.
package frame

// Each frame is a single line of ASCII text:
//
//	<label>:<celsius>\n
//
// where label is the sensor type of a thermal zone (e.g. x86_pkg_temp) and
// celsius is the temperature with exactly one fractional digit. There is no
// escaping; labels containing ':' or line breaks are not supported.
//
// The protocol is one-way and carries no sequence or checksum. A line which
// can't be decoded is discarded by the receiver and the stream continues with
// the next line.
//
// Producer: host sender
// Consumer: display receiver
