package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Frank-III/git-warp/internal/hooks"
	"github.com/Frank-III/git-warp/internal/style"
)

var (
	hooksInstallLevel string
	hooksRemoveLevel  string
)

var hooksInstallCmd = &cobra.Command{
	Use:   "hooks-install",
	Short: "Install Claude Code hooks for agent status tracking",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := hooks.ParseLevel(hooksInstallLevel)
		if err != nil {
			return err
		}

		if level == hooks.LevelConsole {
			out, err := hooks.ConfigJSON()
			if err != nil {
				return err
			}
			fmt.Println("Add this to your Claude Code settings:")
			fmt.Println(out)
			return nil
		}

		if flagDryRun {
			path, err := hooks.SettingsPath(level)
			if err != nil {
				return err
			}
			fmt.Printf("%s Would merge warp hooks into %s\n", style.Step(), style.Path.Render(path))
			return nil
		}

		path, err := hooks.Install(level)
		if err != nil {
			return err
		}
		fmt.Printf("%s Installed warp hooks in %s\n", style.OK(), style.Path.Render(path))
		return nil
	},
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "hooks-remove",
	Short: "Remove warp's Claude Code hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := hooks.ParseLevel(hooksRemoveLevel)
		if err != nil {
			return err
		}
		if level == hooks.LevelConsole {
			level = hooks.LevelUser
		}

		path, err := hooks.Remove(level)
		if err != nil {
			return err
		}
		fmt.Printf("%s Removed warp hooks from %s\n", style.OK(), style.Path.Render(path))
		return nil
	},
}

var hooksStatusCmd = &cobra.Command{
	Use:   "hooks-status",
	Short: "Show which warp hooks are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, level := range []hooks.Level{hooks.LevelUser, hooks.LevelProject} {
			path, err := hooks.SettingsPath(level)
			if err != nil {
				return err
			}
			ids, err := hooks.Installed(level)
			if err != nil {
				return err
			}
			if ids == nil {
				fmt.Printf("%s %s: %s\n", style.Dim.Render("∅"), level, style.Dim.Render("no settings file"))
				continue
			}
			fmt.Printf("%s %s: %d warp hooks in %s\n", style.OK(), level, len(ids), style.Path.Render(path))
			for _, id := range ids {
				fmt.Printf("    %s %s\n", style.Dim.Render("·"), id)
			}
		}
		return nil
	},
}

func init() {
	hooksInstallCmd.Flags().StringVar(&hooksInstallLevel, "level", "", "Installation level: user, project, console")
	hooksRemoveCmd.Flags().StringVar(&hooksRemoveLevel, "level", "user", "Removal level: user, project")
	rootCmd.AddCommand(hooksInstallCmd, hooksRemoveCmd, hooksStatusCmd)
}
