package util

import (
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// baseURL is the address of the page index: the base path with a trailing
// slash, matching the server's "/" route.
func baseURL(scheme, host string, port int, basePath string) string {
	p := basePath
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	u := &url.URL{Scheme: scheme, Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: p}
	return u.String()
}

// lanAddrs lists the IPv4 addresses of interfaces that are up and not
// loopback.
func lanAddrs() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ip, _, err := net.ParseCIDR(a.String())
			if err != nil || ip.IsLoopback() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				out = append(out, v4.String())
			}
		}
	}
	return out
}

// DiscoverURLs returns the URLs the server answers on: loopback always, plus
// the bind address when it is specific or every LAN address when it is a
// wildcard.
func DiscoverURLs(bind string, port int, https bool, basePath string) []string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	hosts := []string{"127.0.0.1", "localhost"}
	switch bind {
	case "", "0.0.0.0", "::":
		hosts = append(hosts, lanAddrs()...)
	default:
		hosts = append(hosts, bind)
	}

	urls := make([]string, 0, len(hosts))
	for _, h := range hosts {
		urls = append(urls, baseURL(scheme, h, port, basePath))
	}
	slices.Sort(urls)
	return slices.Compact(urls)
}
