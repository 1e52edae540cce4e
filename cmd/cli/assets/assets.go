package assets

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/cmd/cli/output"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Browse the equipment registry",
	}

	assetsCmd.AddCommand(
		listAssetsCmd(),
		getAssetCmd(),
		categoryAssetsCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

func render(assets []models.Asset) {
	rows := make([][]interface{}, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []interface{}{a.ID, a.Name, a.CategoryID, a.State, a.Description})
	}
	output.RenderTable([]string{"ID", "Name", "Category", "State", "Description"}, rows)
}

// ==========================
// LIST
// ==========================
func listAssetsCmd() *cobra.Command {
	var state string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets in a state (available by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			if state != "" {
				q.Set("state", state)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}

			var assets []models.Asset
			if err := c.Get(cmd.Context(), "/assets", q, &assets); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(assets)
			}
			render(assets)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "available | loaned | in_maintenance | decommissioned")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// GET
// ==========================
func getAssetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid asset id %q", args[0])
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var a models.Asset
			if err := c.Get(cmd.Context(), "/assets/"+strconv.Itoa(id), nil, &a); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(a)
			}
			render([]models.Asset{a})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// BY CATEGORY
// ==========================
func categoryAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <category-id>",
		Short: "List every asset in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid category id %q", args[0])
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var assets []models.Asset
			if err := c.Get(cmd.Context(), "/categories/"+strconv.Itoa(id)+"/assets", nil, &assets); err != nil {
				return err
			}
			render(assets)
			return nil
		},
	}
}
