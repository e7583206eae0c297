// Package discovery locates EMC bridges on the local network over mDNS.
//
// A bridge started with mDNS enabled advertises the "_emcbridge._tcp"
// service. Its TXT records name the WebSocket endpoint paths:
//
//	version=<bridge version>
//	emc=/emc
//	efc=/efc      (only when the EFC relay is wired)
//
// # Usage Example
//
//	devices, err := discovery.ScanForDevices(3 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Println(d.Instance, d.EMCURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
