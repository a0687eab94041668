// Package integration exercises modoverlay against the running kernel.
//
// Every test needs root and a kernel with overlayfs; they are skipped
// otherwise. Tests mount inside a private tmpfs under t.TempDir() and
// detach it on cleanup.
package integration
