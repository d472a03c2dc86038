package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kill-switch state and pipeline counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.Status(context.Background()))
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		unresolved, _ := cmd.Flags().GetBool("unresolved")
		limit, _ := cmd.Flags().GetInt("limit")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		alerts, err := c.Alerts.List(unresolved, limit)
		if err != nil {
			return err
		}
		renderResult(resultOf(alerts))
		return nil
	},
}

func init() {
	alertsCmd.Flags().Bool("unresolved", false, "only unresolved alerts")
	alertsCmd.Flags().Int("limit", 50, "maximum alerts to show")
}
