package device

import "fmt"

// Type identifies which transport a Driver speaks.
type Type string

const (
	TypeAndroid Type = "android"
	TypeHarmony Type = "harmony"
)

// New constructs the Driver for the given transport type and device id.
// An empty deviceID targets the single attached/default device.
func New(t Type, deviceID string, apps AppTable) (Driver, error) {
	switch t {
	case TypeAndroid:
		return NewADBDriver(deviceID, apps), nil
	case TypeHarmony:
		return NewHDCDriver(deviceID, apps), nil
	default:
		return nil, fmt.Errorf("device: unknown transport type %q", t)
	}
}
