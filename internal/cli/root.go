package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	logLevel   string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for modoverlay.
var rootCmd = &cobra.Command{
	Use:     "modoverlay",
	Version: "dev",
	Short:   "Layer module directories over live system partitions",
	Long: `modoverlay patches live filesystem roots with module directories using overlayfs.

Every mount that already exists under a patched root is preserved: it is bound
back through the new tree, re-overlaid with module content, or masked when a
module replaces it with a file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// helpFunc renders help with colored section and group titles.
func helpFunc(cmd *cobra.Command, args []string) {
	var b strings.Builder
	if cmd.Long != "" {
		b.WriteString(cmd.Long + "\n\n")
	}
	fmt.Fprintf(&b, "%s\n  %s\n\n", sectionTitleColor.Sprint("Usage:"), cmd.UseLine())

	for _, group := range cmd.Groups() {
		writeCommands(&b, groupTitleColor.Sprint(group.Title), cmd, group.ID)
	}
	writeCommands(&b, sectionTitleColor.Sprint("Additional Commands:"), cmd, "")

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		fmt.Fprintf(&b, "%s\n%s%s\n", sectionTitleColor.Sprint("Flags:"),
			cmd.LocalFlags().FlagUsages(), cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())

	fmt.Fprint(cmd.OutOrStdout(), b.String())
}

// writeCommands lists the visible subcommands of cmd in groupID under title.
// Nothing is written when the group is empty.
func writeCommands(b *strings.Builder, title string, cmd *cobra.Command, groupID string) {
	var rows []string
	for _, c := range cmd.Commands() {
		if c.GroupID == groupID && !c.Hidden {
			rows = append(rows, fmt.Sprintf("  %-11s %s\n", c.Name(), c.Short))
		}
	}
	if len(rows) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("\n")
}

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for modoverlay for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	shells := []struct {
		name string
		gen  func(io.Writer) error
	}{
		{"bash", rootCmd.GenBashCompletion},
		{"zsh", rootCmd.GenZshCompletion},
		{"fish", func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) }},
		{"powershell", rootCmd.GenPowerShellCompletionWithDesc},
	}
	for _, sh := range shells {
		gen := sh.gen
		cmd.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate the autocompletion script for " + sh.name,
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd.OutOrStdout())
			},
		})
	}
	return cmd
}

func init() {
	rootCmd.SetHelpFunc(helpFunc)

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "overlay-tree",
		Title: "Overlay Tree:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "mount-primitives",
		Title: "Mount Primitives:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the modoverlay CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Add help command to CLI & Tooling group
	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Root().Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	rootCmd.AddCommand(completionCmd())

	// Overlay Tree commands
	for _, c := range []*cobra.Command{buildCmd, buildAllCmd, teardownCmd, statusCmd, mountsCmd} {
		c.GroupID = "overlay-tree"
		rootCmd.AddCommand(c)
	}

	// Mount Primitives commands
	for _, c := range []*cobra.Command{ext4Cmd, overlayCmd, tmpfsCmd, devptsCmd, bindCmd, umountCmd} {
		c.GroupID = "mount-primitives"
		rootCmd.AddCommand(c)
	}
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
