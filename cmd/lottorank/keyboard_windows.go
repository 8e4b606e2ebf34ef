//go:build windows

package main

import "os"

// listenForKeyboard reads keys from stdin; the Windows console stays line buffered
func listenForKeyboard(c *console) {
	c.run(os.Stdin)
}
