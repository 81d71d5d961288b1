//go:build !unix

package protocol

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
