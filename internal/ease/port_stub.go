//go:build !windows

package ease

import (
	"context"

	"go.uber.org/zap"
)

// stubPort is the non-Windows placeholder for the native automation port.
// The vendor application only exists on Windows; everything else in the
// pipeline (scanning, completion checks, archiving, metadata) still works.
type stubPort struct{}

// NewNativePort returns a port whose Launch always fails on this platform.
func NewNativePort(_ *zap.SugaredLogger) Port {
	return stubPort{}
}

func (stubPort) Launch(context.Context, string) error { return ErrUnsupportedPlatform }

func (stubPort) OpenFile(context.Context, string, string) error { return ErrUnsupportedPlatform }

func (stubPort) SaveFile(context.Context, string, string) error { return ErrUnsupportedPlatform }

func (stubPort) SendKeys(context.Context, string, string) error { return ErrUnsupportedPlatform }

func (stubPort) FindResultsView(context.Context, string) (string, []string, error) {
	return "", nil, ErrUnsupportedPlatform
}

func (stubPort) SelectCombo(context.Context, string, string, string) error {
	return ErrUnsupportedPlatform
}

func (stubPort) Click(context.Context, string, string) error { return ErrUnsupportedPlatform }

func (stubPort) WaitQuiescent(context.Context) error { return ErrUnsupportedPlatform }

func (stubPort) Kill() {}
