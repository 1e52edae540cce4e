package maintenance

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/cmd/cli/output"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/spf13/cobra"
)

func InitMaintenance(rootCmd *cobra.Command) {
	maintenanceCmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Send equipment to maintenance and bring it back",
	}
	maintenanceCmd.AddCommand(startCmd(), completeCmd(), listCmd())
	rootCmd.AddCommand(maintenanceCmd)
}

func startCmd() *cobra.Command {
	var assetID int
	var kind, notes string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start preventive or corrective maintenance on an available asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := models.ParseMaintenanceType(kind); !ok {
				return fmt.Errorf("invalid --type %q: use preventive or corrective", kind)
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var rec models.MaintenanceRecord
			payload := map[string]any{"asset_id": assetID, "type": kind, "notes": notes}
			if err := c.Post(cmd.Context(), "/maintenance", payload, &rec); err != nil {
				return err
			}
			fmt.Printf("Maintenance %d (%s) started on asset %d\n", rec.ID, rec.Type, rec.AssetID)
			return nil
		},
	}
	cmd.Flags().IntVar(&assetID, "asset", 0, "asset id")
	cmd.Flags().StringVar(&kind, "type", "preventive", "preventive | corrective")
	cmd.Flags().StringVar(&notes, "notes", "", "work description")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func completeCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "complete <maintenance-id>",
		Short: "Complete maintenance and make the asset available again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid maintenance id %q", args[0])
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var rec models.MaintenanceRecord
			if err := c.Post(cmd.Context(), "/maintenance/"+strconv.Itoa(id)+"/complete", map[string]string{"notes": notes}, &rec); err != nil {
				return err
			}
			fmt.Printf("Maintenance %d completed; asset %d is available\n", rec.ID, rec.AssetID)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	return cmd
}

func listCmd() *cobra.Command {
	var state string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List maintenance records",
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
			var recs []models.MaintenanceRecord
			if err := c.Get(cmd.Context(), "/maintenance", q, &recs); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(recs)
			}
			rows := make([][]interface{}, 0, len(recs))
			for _, m := range recs {
				rows = append(rows, []interface{}{m.ID, m.AssetID, m.Type, m.State, output.Time(&m.StartedAt), output.Time(m.EndedAt), m.Notes})
			}
			output.RenderTable([]string{"ID", "Asset", "Type", "State", "Started", "Ended", "Notes"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "in_progress | completed")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
