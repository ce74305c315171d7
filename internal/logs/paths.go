package logs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "bsnsmcp"

// LogDir returns the standard log directory for the current OS.
func LogDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return windowsLogDir()
	case "darwin":
		return macOSLogDir()
	case "linux":
		return linuxLogDir()
	default:
		return defaultLogDir()
	}
}

// windowsLogDir uses %LOCALAPPDATA%\bsnsmcp\logs.
func windowsLogDir() (string, error) {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return defaultLogDir()
		}
		localAppData = filepath.Join(userProfile, "AppData", "Local")
	}
	return filepath.Join(localAppData, appName, "logs"), nil
}

// macOSLogDir uses ~/Library/Logs/bsnsmcp.
func macOSLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultLogDir()
	}
	return filepath.Join(homeDir, "Library", "Logs", appName), nil
}

// linuxLogDir follows the XDG state directory convention, with /var/log for
// root.
func linuxLogDir() (string, error) {
	if os.Getuid() == 0 {
		return filepath.Join("/var/log", appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultLogDir()
	}
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, appName, "logs"), nil
}

func defaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName, "logs"), nil
	}
	return filepath.Join(homeDir, "."+appName, "logs"), nil
}

// LogFilePath resolves filename inside logDir, falling back to the standard
// directory when logDir is empty. The directory is created if needed.
func LogFilePath(logDir, filename string) (string, error) {
	if logDir == "" {
		dir, err := LogDir()
		if err != nil {
			return "", err
		}
		logDir = dir
	}
	if strings.HasPrefix(logDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		logDir = filepath.Join(homeDir, logDir[2:])
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(logDir, filename), nil
}
