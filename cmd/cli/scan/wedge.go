package scan

import (
	"context"

	"github.com/crucial707/hci-lending/internal/scan"
)

// wedgeCamera stands in for a camera when a USB barcode reader types payloads as keyboard
// lines. There is nothing to grant or configure.
type wedgeCamera struct{}

func (wedgeCamera) Permission(context.Context) (scan.Permission, error) {
	return scan.PermissionGranted, nil
}

func (wedgeCamera) RequestPermission(context.Context) (scan.Permission, error) {
	return scan.PermissionGranted, nil
}

func (wedgeCamera) OpenSettings(context.Context) error { return nil }

func (wedgeCamera) Configure(scan.Facing, bool) error { return nil }
