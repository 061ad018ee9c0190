package transport

import "syscall"

// controlReusePort is passed as a net.ListenConfig.Control hook so that
// several processes (or, in principle, several listeners in this one)
// can bind the same port.
func controlReusePort(network, address string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = setReusePort(fd)
	}); err != nil {
		return err
	}
	return sockErr
}
