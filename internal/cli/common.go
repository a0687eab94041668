package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/moby/sys/capability"
	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/modoverlay/internal/config"
	"github.com/danieljhkim/modoverlay/internal/engine"
	"github.com/danieljhkim/modoverlay/internal/fsops"
	"github.com/danieljhkim/modoverlay/internal/loop"
	"github.com/danieljhkim/modoverlay/internal/mount"
	"github.com/danieljhkim/modoverlay/internal/mounttable"
	"github.com/danieljhkim/modoverlay/internal/state"
)

// ErrLocked indicates another modoverlay process holds the lock.
var ErrLocked = errors.New("another modoverlay operation is in progress")

// env bundles the real dependencies shared by every command.
type env struct {
	paths *config.Paths
	cfg   *config.Config
	fs    fsops.FS
	log   *logrus.Logger
}

// loadEnv resolves paths, reads the config file and builds the logger.
func loadEnv() (*env, error) {
	paths := config.DefaultPaths()
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, err
	}
	if cfg.ModulesDir != "" {
		paths.Modules = cfg.ModulesDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &env{
		paths: paths,
		cfg:   cfg,
		fs:    fsops.NewRealFS(),
		log:   log,
	}, nil
}

// newLogger returns a stderr logger at the named level.
func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log, nil
}

// newMounter creates a mounter over the host mount namespace.
func (e *env) newMounter() *mount.Mounter {
	loops := loop.NewAllocator(e.log, "")
	return mount.New(mount.NewHostNamespace(), loops, e.fs, e.log, e.cfg.SourceName)
}

// newEngine creates a new engine with real implementations of all dependencies.
func (e *env) newEngine() (*engine.Engine, error) {
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	states := state.NewFileStateStore(e.fs, e.paths.State)
	return engine.New(e.newMounter(), mounttable.HostSource{}, e.fs, states, e.log), nil
}

// lock takes the modoverlay lock without waiting. Overlapping tree builds
// must not run concurrently.
func (e *env) lock() (func() error, error) {
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	l := flock.New(e.paths.Lock)
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", e.paths.Lock, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held on %s)", ErrLocked, e.paths.Lock)
	}
	return l.Unlock, nil
}

// requireSysAdmin fails early when the process cannot mount.
func requireSysAdmin() error {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return fmt.Errorf("failed to read capabilities: %w", err)
	}
	if err := caps.Load(); err != nil {
		return fmt.Errorf("failed to read capabilities: %w", err)
	}
	if !caps.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN) {
		return fmt.Errorf("CAP_SYS_ADMIN is required to mount")
	}
	return nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
