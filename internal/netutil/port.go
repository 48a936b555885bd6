package netutil

import (
	"fmt"
	"net"
	"strings"
)

// SelectBindAddr returns preferred when it can be listened on, otherwise the
// first free candidate when autoFallback is set. Candidates equal to
// preferred are not probed twice.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	if preferred != "" {
		if IsAddrAvailable(preferred) {
			return preferred, nil
		}
		if !autoFallback {
			return "", fmt.Errorf("explorer bind address in use: %s", preferred)
		}
	}

	var tried []string
	for _, addr := range candidates {
		if addr == "" || addr == preferred {
			continue
		}
		if IsAddrAvailable(addr) {
			return addr, nil
		}
		tried = append(tried, addr)
	}

	return "", fmt.Errorf("no available explorer bind address (preferred %q, tried [%s])", preferred, strings.Join(tried, ", "))
}

// IsAddrAvailable reports whether addr can be listened on right now.
func IsAddrAvailable(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
