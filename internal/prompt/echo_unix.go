//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package prompt

import "golang.org/x/sys/unix"

// setEcho turns echo on fd on or off. Line editing and signal keys are left
// as they are, so ^C still interrupts a secret read.
func setEcho(fd int, on bool) error {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	if on {
		termios.Lflag |= unix.ECHO
	} else {
		termios.Lflag &^= unix.ECHO
	}
	return unix.IoctlSetTermios(fd, ioctlSetTermios, termios)
}
