package prompt

import "golang.org/x/sys/windows"

// setEcho turns console echo on fd on or off.
func setEcho(fd int, on bool) error {
	h := windows.Handle(fd)
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return err
	}
	if on {
		mode |= windows.ENABLE_ECHO_INPUT
	} else {
		mode &^= windows.ENABLE_ECHO_INPUT
	}
	return windows.SetConsoleMode(h, mode)
}
