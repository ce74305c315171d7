package oauth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// OpenBrowser launches the system browser at the given URL.
func OpenBrowser(targetURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", targetURL)
	case "darwin":
		cmd = exec.Command("open", targetURL)
	default:
		cmd = exec.Command("xdg-open", targetURL)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// hasGUIEnvironment reports whether a graphical session appears to be
// available. Headless hosts get the URL printed instead of a failed exec.
func hasGUIEnvironment() bool {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return true
	}
	return os.Getenv("DISPLAY") != "" ||
		os.Getenv("WAYLAND_DISPLAY") != "" ||
		os.Getenv("XDG_SESSION_TYPE") != ""
}

// BrowserRedirect returns a RedirectFunc that opens the authorization URL in
// the system browser, falling back to printing it on stderr when no browser
// can be launched.
func BrowserRedirect(logger *zap.Logger) RedirectFunc {
	if logger == nil {
		logger = zap.L().Named("oauth")
	}
	return func(_ context.Context, authorizationURL string) error {
		if hasGUIEnvironment() {
			if err := OpenBrowser(authorizationURL); err == nil {
				logger.Debug("opened browser for authorization")
				return nil
			}
			logger.Warn("browser launch failed, printing authorization url")
		}
		fmt.Fprintf(os.Stderr, "Open this URL in your browser to authorize:\n\n  %s\n\n", authorizationURL)
		return nil
	}
}
