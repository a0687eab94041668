package mount

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Guard owns an ext4-over-loop mount and releases it at most once.
//
// Typical use:
//
//	g, err := mount.AcquireExt4(m, image, target, true)
//	if err != nil {
//		return err
//	}
//	defer g.Close()
type Guard struct {
	mounter     *Mounter
	target      string
	autoRelease bool
	log         logrus.FieldLogger

	once sync.Once
	err  error
}

// AcquireExt4 mounts source on target and returns a guard over the mount.
// With autoRelease, Close detaches the mount.
func AcquireExt4(m *Mounter, source, target string, autoRelease bool) (*Guard, error) {
	m.inspectSource(source)
	if err := m.MountExt4(source, target); err != nil {
		return nil, err
	}
	return &Guard{
		mounter:     m,
		target:      target,
		autoRelease: autoRelease,
		log:         m.log.WithField("target", target),
	}, nil
}

// Target returns the guarded mount point.
func (g *Guard) Target() string {
	return g.target
}

// Release detaches the mount and reports the result. Only the first call
// (from Release or Close) reaches the kernel; later calls return its error.
func (g *Guard) Release() error {
	_, err := g.release()
	return err
}

// Close ends the guard's scope. When auto-release is set it detaches the
// mount; a failure is logged, never returned.
func (g *Guard) Close() {
	g.log.WithField("autoRelease", g.autoRelease).Info("ext4 guard closed")
	if !g.autoRelease {
		return
	}
	if attempted, err := g.release(); attempted && err != nil {
		g.log.WithError(err).Warn("failed to release ext4 mount")
	}
}

func (g *Guard) release() (attempted bool, err error) {
	g.once.Do(func() {
		attempted = true
		g.err = g.mounter.Detach(g.target)
	})
	return attempted, g.err
}
