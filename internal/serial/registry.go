package serial

// UnknownDevice is the label for ports with no registry match.
const UnknownDevice = "Unknown"

// KnownDevice maps a board label to the USB vendor/product pair its
// serial bridge reports.
type KnownDevice struct {
	Label string
	VID   uint16
	PID   uint16
}

// knownDevices is the registry of boards the detector recognizes.
// Order matters: Identify returns the first match, so when two boards
// share a bridge chip (ESP32_ALT and Arduino Nano both enumerate as a
// CH340) the earlier entry wins.
var knownDevices = []KnownDevice{
	{Label: "Arduino Uno", VID: 0x2341, PID: 0x0043},
	{Label: "Arduino Mega", VID: 0x2341, PID: 0x0010},
	{Label: "ESP32", VID: 0x10C4, PID: 0xEA60},     // CP2102
	{Label: "ESP32_ALT", VID: 0x1A86, PID: 0x7523}, // CH340
	{Label: "Arduino Nano", VID: 0x1A86, PID: 0x7523},
}

// Identify looks up a vendor/product pair in the registry. Matching is
// exact on both IDs; first registered entry wins.
func Identify(vid, pid uint16) (string, bool) {
	for _, d := range knownDevices {
		if d.VID == vid && d.PID == pid {
			return d.Label, true
		}
	}
	return "", false
}

// KnownDevices returns a copy of the registry, in registration order.
func KnownDevices() []KnownDevice {
	out := make([]KnownDevice, len(knownDevices))
	copy(out, knownDevices)
	return out
}
