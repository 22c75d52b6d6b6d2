package session

import (
	"context"

	"github.com/trawl-tools/trawl/pkg/spec"
)

// previewDialer hands out sessions that never touch the network. The
// engine walks the same dial, send and close sequence it would against
// live devices, with every capture empty.
type previewDialer struct{}

// NewPreviewDialer returns the Dialer used by preview runs.
func NewPreviewDialer() Dialer {
	return previewDialer{}
}

func (previewDialer) Dial(ctx context.Context, dev *spec.Device) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &previewSession{}, nil
}

type previewSession struct{}

func (*previewSession) Send(ctx context.Context, cmd *spec.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", nil
}

func (*previewSession) Close() error {
	return nil
}
