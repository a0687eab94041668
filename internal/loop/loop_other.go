//go:build !linux

package loop

import (
	"errors"
	"fmt"
)

func detectPattern() string {
	return DefaultDevicePattern
}

func (a *Allocator) attachOnce(backing string) (string, error) {
	return "", fmt.Errorf("failed to attach %s: %w", backing, errors.ErrUnsupported)
}
