package open

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// starter launches the system opener; replaced in tests.
var starter = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// command returns the opener for goos.
func command(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// URL hands target to the desktop's default handler without waiting for it.
func URL(target string) error {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return fmt.Errorf("not a web url: %q", target)
	}
	name, args := command(runtime.GOOS, target)
	if err := starter(name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
