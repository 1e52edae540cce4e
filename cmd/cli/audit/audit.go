package audit

import (
	"net/url"
	"strconv"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/cmd/cli/output"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/spf13/cobra"
)

func InitAudit(rootCmd *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit trail",
	}
	auditCmd.AddCommand(listCmd())
	rootCmd.AddCommand(auditCmd)
}

func listCmd() *cobra.Command {
	var action, subject, from, to string
	var assetID, limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the audit history, newest first",
		Example: `  lending audit list --action Return --from 2026-03-01 --to 2026-03-31
  lending audit list --asset 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			for k, v := range map[string]string{"action": action, "subject_type": subject, "from": from, "to": to} {
				if v != "" {
					q.Set(k, v)
				}
			}
			for k, v := range map[string]int{"asset_id": assetID, "limit": limit, "offset": offset} {
				if v > 0 {
					q.Set(k, strconv.Itoa(v))
				}
			}
			var entries []models.AuditEntry
			if err := c.Get(cmd.Context(), "/audit", q, &entries); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(entries)
			}
			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{output.Time(&e.CreatedAt), e.Action, e.AssetID, e.ActorID, e.Detail})
			}
			output.RenderTable([]string{"When", "Action", "Asset", "Actor", "Detail"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "Loan | Return | MaintenanceStart | MaintenanceComplete")
	cmd.Flags().StringVar(&subject, "subject", "", "loan | maintenance")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "end date, inclusive (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().IntVar(&assetID, "asset", 0, "only this asset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
