package session

import (
	"context"
	"fmt"
	"time"

	"github.com/tiroq/screencastd/internal/capture"
	"github.com/tiroq/screencastd/internal/config"
	"github.com/tiroq/screencastd/internal/region"
)

// CaptureAdapter bridges the capture supervisor into the Backend interface.
type CaptureAdapter struct {
	sup *capture.Supervisor
}

// NewCaptureAdapter wraps a capture supervisor.
func NewCaptureAdapter(sup *capture.Supervisor) *CaptureAdapter {
	return &CaptureAdapter{sup: sup}
}

// Launch implements Backend.
func (a *CaptureAdapter) Launch(ctx context.Context, reg region.Region, cfg config.Config, outputPath string) (Process, error) {
	h, err := a.sup.Launch(ctx, reg, cfg, outputPath)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Stop implements Backend.
func (a *CaptureAdapter) Stop(ctx context.Context, p Process, grace time.Duration) error {
	h, ok := p.(*capture.Handle)
	if !ok {
		return fmt.Errorf("unexpected process type %T", p)
	}
	return a.sup.Stop(ctx, h, grace)
}
