package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seoforge/seoforge/internal/store"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage content drafts through the approval pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var draftCreateCmd = &cobra.Command{
	Use:   "create <brief-id>",
	Short: "Create a draft against a brief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		briefID, err := parseID(args[0], "brief")
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		slug, _ := cmd.Flags().GetString("slug")
		bodyFile, _ := cmd.Flags().GetString("body-file")

		body, err := os.ReadFile(bodyFile)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		draft, err := c.Pipeline.CreateDraft(briefID, title, slug, string(body))
		if err != nil {
			return err
		}
		renderResult(resultOf(draft))
		return nil
	},
}

var draftSubmitCmd = &cobra.Command{
	Use:   "submit <draft-id>",
	Short: "Submit a draft for human review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.SubmitDraft(context.Background(), id))
		return nil
	},
}

var draftApproveCmd = &cobra.Command{
	Use:   "approve <draft-id>",
	Short: "Approve a reviewed draft (runs the similarity gate)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		validator, _ := cmd.Flags().GetString("validator")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.Approve(context.Background(), id, validator))
		return nil
	},
}

var draftRejectCmd = &cobra.Command{
	Use:   "reject <draft-id>",
	Short: "Reject a reviewed draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.Reject(context.Background(), id, reason))
		return nil
	},
}

var draftPublishCmd = &cobra.Command{
	Use:   "publish <draft-id>",
	Short: "Publish one approved draft immediately (all gates still apply)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()
		renderResult(c.PublishDraft(context.Background(), id))
		return nil
	},
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		siteID, _ := cmd.Flags().GetInt64("site")
		status, _ := cmd.Flags().GetString("status")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		drafts, err := c.Store.ListDrafts(siteID, store.DraftStatus(status))
		if err != nil {
			return err
		}
		renderResult(resultOf(drafts))
		return nil
	},
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func init() {
	draftCreateCmd.Flags().String("title", "", "draft title (required)")
	draftCreateCmd.Flags().String("slug", "", "URL slug (derived from title when empty)")
	draftCreateCmd.Flags().String("body-file", "", "path to the content body (required)")
	draftCreateCmd.MarkFlagRequired("title")
	draftCreateCmd.MarkFlagRequired("body-file")

	draftApproveCmd.Flags().String("validator", "", "validator identity (required)")
	draftApproveCmd.MarkFlagRequired("validator")

	draftRejectCmd.Flags().String("reason", "", "rejection reason (required)")
	draftRejectCmd.MarkFlagRequired("reason")

	draftListCmd.Flags().Int64("site", 0, "filter by site id")
	draftListCmd.Flags().String("status", "", "filter by status")

	draftCmd.AddCommand(draftCreateCmd, draftSubmitCmd, draftApproveCmd, draftRejectCmd, draftPublishCmd, draftListCmd)
}
