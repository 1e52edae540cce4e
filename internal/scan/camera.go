package scan

import "context"

// Permission is the camera permission as reported by the platform.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	}
	return "undetermined"
}

// Facing selects the physical camera.
type Facing string

const (
	FacingBack  Facing = "back"
	FacingFront Facing = "front"
)

// Camera is the decode-capable device the controller drives. Decoded payloads are delivered
// by the device layer calling Controller.OnDecode; Camera only covers permission and setup.
type Camera interface {
	Permission(ctx context.Context) (Permission, error)
	// RequestPermission prompts the user and returns the resulting permission.
	RequestPermission(ctx context.Context) (Permission, error)
	// OpenSettings sends the user to the system settings page for the app.
	OpenSettings(ctx context.Context) error
	Configure(facing Facing, torch bool) error
}
