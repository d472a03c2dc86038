package cli

import (
	"github.com/spf13/cobra"

	"github.com/seoforge/seoforge/internal/store"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage sites",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var siteAddCmd = &cobra.Command{
	Use:   "add <domain>",
	Short: "Register a managed site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		rootPath, _ := cmd.Flags().GetString("root")
		niche, _ := cmd.Flags().GetString("niche")
		if name == "" {
			name = args[0]
		}

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		site, err := c.Store.CreateSite(name, args[0], rootPath, niche)
		if err != nil {
			return err
		}
		renderResult(resultOf(site))
		return nil
	},
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List managed sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		sites, err := c.Store.ListSites(activeOnly)
		if err != nil {
			return err
		}
		renderResult(resultOf(sites))
		return nil
	},
}

var keywordCmd = &cobra.Command{
	Use:   "keyword",
	Short: "Manage target keywords",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var keywordAddCmd = &cobra.Command{
	Use:   "add <keyword>",
	Short: "Add a target keyword for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		siteID, _ := cmd.Flags().GetInt64("site")
		volume, _ := cmd.Flags().GetInt("volume")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		priority, _ := cmd.Flags().GetInt("priority")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		kw, err := c.Pipeline.AddKeyword(siteID, args[0], volume, difficulty, priority)
		if err != nil {
			return err
		}
		renderResult(resultOf(kw))
		return nil
	},
}

var keywordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keywords for a site",
	RunE: func(cmd *cobra.Command, args []string) error {
		siteID, _ := cmd.Flags().GetInt64("site")
		status, _ := cmd.Flags().GetString("status")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		keywords, err := c.Store.ListKeywords(siteID, store.KeywordStatus(status))
		if err != nil {
			return err
		}
		renderResult(resultOf(keywords))
		return nil
	},
}

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Manage content briefs",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var briefCreateCmd = &cobra.Command{
	Use:   "create <keyword-id>",
	Short: "Create a brief for a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keywordID, err := parseID(args[0], "keyword")
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		outline, _ := cmd.Flags().GetString("outline")

		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		brief, err := c.Pipeline.CreateBrief(keywordID, title, outline)
		if err != nil {
			return err
		}
		renderResult(resultOf(brief))
		return nil
	},
}

var briefValidateCmd = &cobra.Command{
	Use:   "validate <brief-id>",
	Short: "Validate a drafted brief for writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		briefID, err := parseID(args[0], "brief")
		if err != nil {
			return err
		}
		c, err := openCore()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Pipeline.ValidateBrief(briefID); err != nil {
			return err
		}
		renderResult(resultOf("validated"))
		return nil
	},
}

func init() {
	siteAddCmd.Flags().String("name", "", "display name (defaults to domain)")
	siteAddCmd.Flags().String("root", "/var/www/html", "web root path on the site host")
	siteAddCmd.Flags().String("niche", "", "site niche")
	siteListCmd.Flags().Bool("active", false, "only active sites")
	siteCmd.AddCommand(siteAddCmd, siteListCmd)

	keywordAddCmd.Flags().Int64("site", 0, "site id (required)")
	keywordAddCmd.Flags().Int("volume", 0, "monthly search volume")
	keywordAddCmd.Flags().Int("difficulty", 0, "ranking difficulty 0-100")
	keywordAddCmd.Flags().Int("priority", 3, "priority 1 (high) to 5 (low)")
	keywordAddCmd.MarkFlagRequired("site")
	keywordListCmd.Flags().Int64("site", 0, "site id (required)")
	keywordListCmd.Flags().String("status", "", "filter by status")
	keywordListCmd.MarkFlagRequired("site")
	keywordCmd.AddCommand(keywordAddCmd, keywordListCmd)

	briefCreateCmd.Flags().String("title", "", "brief title (required)")
	briefCreateCmd.Flags().String("outline", "", "structured outline")
	briefCreateCmd.MarkFlagRequired("title")
	briefCmd.AddCommand(briefCreateCmd, briefValidateCmd)
}
