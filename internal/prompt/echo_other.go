//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows)

package prompt

import "errors"

func setEcho(int, bool) error {
	return errors.ErrUnsupported
}
