// Package browser hands URLs to the desktop's default browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the launcher for url on goos without starting it.
func Command(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("browser.Command: unsupported OS %q", goos)
	}
}

// Open starts the default browser on url and does not wait for it.
func Open(url string) error {
	cmd, err := Command(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}
