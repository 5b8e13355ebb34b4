package wire

import "fmt"

// OperatingSystem is the platform enumeration carried in the Init envelope.
type OperatingSystem string

const (
	OSWindows OperatingSystem = "WINDOWS"
	OSLinux   OperatingSystem = "LINUX"
	OSMac     OperatingSystem = "MAC"
)

// DetectOperatingSystem maps a GOOS value to the wire enumeration. An
// unrecognized platform is an error: the server cannot describe itself to
// the client, so session construction must abort.
func DetectOperatingSystem(goos string) (OperatingSystem, error) {
	switch goos {
	case "windows":
		return OSWindows, nil
	case "linux":
		return OSLinux, nil
	case "darwin":
		return OSMac, nil
	default:
		return "", fmt.Errorf("wire - unsupported platform %q", goos)
	}
}
