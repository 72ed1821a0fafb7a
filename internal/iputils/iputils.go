package iputils

import (
	"fmt"
	"net"
)

// GetLocalIPv4Addresses returns the routable IPv4 addresses of this computer,
// skipping loopback and link-local ones.
func GetLocalIPv4Addresses() ([]string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addrs []net.Addr
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, ifAddrs...)
	}
	return filterIPv4(addrs), nil
}

func filterIPv4(addrs []net.Addr) []string {
	var ipv4Addresses []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP == nil || ipNet.IP.IsLoopback() {
			continue
		}
		ip := ipNet.IP.To4()
		if ip != nil && !ip.IsLinkLocalUnicast() {
			ipv4Addresses = append(ipv4Addresses, ip.String())
		}
	}
	return ipv4Addresses
}

// RemoteURLs lists the addresses other machines can use to reach the
// remote control page on port.
func RemoteURLs(port int) []string {
	ips, err := GetLocalIPv4Addresses()
	if err != nil {
		return nil
	}
	urls := make([]string, 0, len(ips))
	for _, ip := range ips {
		urls = append(urls, fmt.Sprintf("http://%s:%d", ip, port))
	}
	return urls
}
