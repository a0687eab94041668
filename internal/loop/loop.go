// Package loop attaches backing files to free loop devices.
package loop

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultControl is the loop control device.
	DefaultControl = "/dev/loop-control"

	// DefaultDevicePattern formats a loop device path from its index.
	DefaultDevicePattern = "/dev/loop%d"

	// AndroidDevicePattern is where Android exposes loop devices.
	AndroidDevicePattern = "/dev/block/loop%d"

	maxAttachRetries = 5
)

// ErrDeviceBusy indicates the device picked as free was claimed first by
// someone else. Attach retries on it.
var ErrDeviceBusy = errors.New("loop device busy")

// Allocator attaches files to loop devices.
type Allocator struct {
	control string
	pattern string
	log     logrus.FieldLogger
	backoff func() backoff.BackOff
}

// NewAllocator creates an Allocator. An empty pattern selects
// AndroidDevicePattern when /dev/block/loop devices exist, and
// DefaultDevicePattern otherwise.
func NewAllocator(log logrus.FieldLogger, pattern string) *Allocator {
	if pattern == "" {
		pattern = detectPattern()
	}
	return &Allocator{
		control: DefaultControl,
		pattern: pattern,
		log:     log,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxElapsedTime = time.Second
			return backoff.WithMaxRetries(b, maxAttachRetries)
		},
	}
}

// Attach attaches backing to a free loop device and returns its path.
func (a *Allocator) Attach(backing string) (string, error) {
	return a.attach(backing, a.attachOnce)
}

func (a *Allocator) attach(backing string, once func(string) (string, error)) (string, error) {
	var dev string
	op := func() error {
		d, err := once(backing)
		if err == nil {
			dev = d
			return nil
		}
		if errors.Is(err, ErrDeviceBusy) {
			a.log.WithField("backing", backing).WithError(err).Debug("loop device claimed concurrently, retrying")
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, a.backoff()); err != nil {
		return "", err
	}
	return dev, nil
}
