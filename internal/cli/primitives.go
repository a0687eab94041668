package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modoverlay/internal/mount"
)

var (
	ext4Hold bool

	overlayLowers []string
	overlayUpper  string
	overlayWork   string

	umountDetach bool
)

// withMounter runs fn with a host mounter after the privilege check.
func withMounter(fn func(m *mount.Mounter) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := requireSysAdmin(); err != nil {
		return err
	}
	return fn(e.newMounter())
}

var ext4Cmd = &cobra.Command{
	Use:   "ext4 <image> <target>",
	Short: "Mount an ext4 image through a loop device",
	Long: `Attach <image> to a free loop device and mount it on <target>.

With --hold the mount is kept until the process receives SIGINT or SIGTERM,
then detached. Without it the mount outlives the command.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			guard, err := mount.AcquireExt4(m, args[0], args[1], ext4Hold)
			if err != nil {
				return err
			}
			defer guard.Close()
			PrintSuccess(fmt.Sprintf("Mounted %s on %s", args[0], guard.Target()))

			if !ext4Hold {
				return nil
			}
			PrintInfo("Holding mount, interrupt to release")
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		})
	},
}

var overlayCmd = &cobra.Command{
	Use:   "overlay <lowest> <dest>",
	Short: "Mount an overlay of --lower directories over <lowest>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			if err := m.MountOverlay(overlayLowers, args[0], overlayUpper, overlayWork, args[1]); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Mounted overlay on %s", args[1]))
			PrintLabelValue("lowerdir", mount.LowerDir(overlayLowers, args[0]))
			return nil
		})
	},
}

var tmpfsCmd = &cobra.Command{
	Use:   "tmpfs <dest>",
	Short: "Mount a private tmpfs with its own devpts instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			if err := m.MountTmpfs(args[0]); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Mounted tmpfs on %s", args[0]))
			return nil
		})
	},
}

var devptsCmd = &cobra.Command{
	Use:   "devpts <dest>",
	Short: "Mount a private devpts instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			if err := m.MountDevpts(args[0]); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Mounted devpts on %s", args[0]))
			return nil
		})
	},
}

var bindCmd = &cobra.Command{
	Use:   "bind <from> <to>",
	Short: "Recursively bind mount a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			if err := m.BindMount(args[0], args[1]); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Bound %s on %s", args[0], args[1]))
			return nil
		})
	},
}

var umountCmd = &cobra.Command{
	Use:   "umount <path>...",
	Short: "Unmount paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMounter(func(m *mount.Mounter) error {
			var failed []string
			for _, p := range args {
				unmount := m.UnmountPath
				if umountDetach {
					unmount = m.Detach
				}
				if err := unmount(p); err != nil {
					PrintError(err.Error())
					failed = append(failed, p)
					continue
				}
				PrintSuccess(fmt.Sprintf("Unmounted %s", p))
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to unmount %s", strings.Join(failed, ", "))
			}
			return nil
		})
	},
}

func init() {
	ext4Cmd.Flags().BoolVar(&ext4Hold, "hold", false, "Keep the mount until interrupted, then detach it")

	overlayCmd.Flags().StringArrayVarP(&overlayLowers, "lower", "l", nil, "Lower directory (repeatable, highest priority first)")
	overlayCmd.Flags().StringVar(&overlayUpper, "upper", "", "Writable upper directory")
	overlayCmd.Flags().StringVar(&overlayWork, "work", "", "Overlay work directory")

	umountCmd.Flags().BoolVarP(&umountDetach, "detach", "l", false, "Lazy unmount (detach even when busy)")
}
