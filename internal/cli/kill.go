package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Operate the publication kill switch",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var killActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Pause all publication activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		hours, _ := cmd.Flags().GetInt("hours")

		var until *time.Time
		if hours > 0 {
			t := time.Now().UTC().Add(time.Duration(hours) * time.Hour)
			until = &t
		}

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.ActivateKillSwitch(context.Background(), reason, until))
		return nil
	},
}

var killResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume publication activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.DeactivateKillSwitch(context.Background()))
		return nil
	},
}

var killHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past kill-switch activations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		history, err := c.Store.KillSwitchHistory(limit)
		if err != nil {
			return err
		}
		renderResult(resultOf(history))
		return nil
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one publication scheduling cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.RunSchedulingCycle(context.Background()))
		return nil
	},
}

func init() {
	killActivateCmd.Flags().String("reason", "manual pause", "why publication is paused")
	killActivateCmd.Flags().Int("hours", 0, "auto-expire after this many hours (0 = until resume)")
	killHistoryCmd.Flags().Int("limit", 20, "maximum rows to show")

	killCmd.AddCommand(killActivateCmd, killResumeCmd, killHistoryCmd)
}
