package netmon

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultWirelessPath is the kernel's wireless statistics table.
const DefaultWirelessPath = "/proc/net/wireless"

// parseWireless returns the signal level in dBm for iface from a
// /proc/net/wireless style table:
//
//	Inter-| sta-|   Quality        |   Discarded packets  ...
//	 face | tus | link level noise |  nwid  crypt   frag  ...
//	 wlan0: 0000   54.  -56.  -256        0      0      0 ...
func parseWireless(r io.Reader, iface string) (int, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return 0, false
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			return 0, false
		}
		return int(level), true
	}
	return 0, false
}

// readWireless opens path and looks up iface. Missing files mean no
// wireless interfaces.
func readWireless(path, iface string) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()
	return parseWireless(f, iface)
}
