package loans

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/cmd/cli/output"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/spf13/cobra"
)

func InitLoans(rootCmd *cobra.Command) {
	loansCmd := &cobra.Command{
		Use:   "loans",
		Short: "Lend and return equipment",
	}
	loansCmd.AddCommand(createLoanCmd(), returnLoanCmd(), listLoansCmd(), getLoanCmd())
	rootCmd.AddCommand(loansCmd)
}

func render(loans []models.Loan) {
	rows := make([][]interface{}, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, []interface{}{
			l.ID, l.AssetID, l.BorrowerID, l.State,
			output.Time(&l.LoanedAt), output.Time(&l.ExpectedReturnAt), output.Time(l.ReturnedAt),
		})
	}
	output.RenderTable([]string{"ID", "Asset", "Borrower", "State", "Loaned", "Due", "Returned"}, rows)
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// ==========================
// CREATE
// ==========================
func createLoanCmd() *cobra.Command {
	var assetID, borrowerID int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Loan an available asset to a borrower",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var loan models.Loan
			payload := map[string]int{"asset_id": assetID, "borrower_id": borrowerID}
			if err := c.Post(cmd.Context(), "/loans", payload, &loan); err != nil {
				return err
			}
			fmt.Printf("Loan %d created: asset %d due %s\n",
				loan.ID, loan.AssetID, loan.ExpectedReturnAt.Local().Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().IntVar(&assetID, "asset", 0, "asset id")
	cmd.Flags().IntVar(&borrowerID, "borrower", 0, "borrower user id")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("borrower")
	return cmd
}

// ==========================
// RETURN
// ==========================
func returnLoanCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Register the return of a loaned asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var ret models.Return
			if err := c.Post(cmd.Context(), "/loans/"+strconv.Itoa(id)+"/return", map[string]string{"notes": notes}, &ret); err != nil {
				return err
			}
			fmt.Printf("Loan %d returned at %s (%s)\n", ret.LoanID, output.Time(&ret.ReturnedAt), ret.Notes)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "condition notes")
	return cmd
}

// ==========================
// LIST
// ==========================
func listLoansCmd() *cobra.Command {
	var state string
	var borrowerID, assetID, limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			if state != "" {
				q.Set("state", state)
			}
			for k, v := range map[string]int{"borrower_id": borrowerID, "asset_id": assetID, "limit": limit, "offset": offset} {
				if v > 0 {
					q.Set(k, strconv.Itoa(v))
				}
			}
			var loans []models.Loan
			if err := c.Get(cmd.Context(), "/loans", q, &loans); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(loans)
			}
			render(loans)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "active | returned")
	cmd.Flags().IntVar(&borrowerID, "borrower", 0, "only this borrower")
	cmd.Flags().IntVar(&assetID, "asset", 0, "only this asset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func getLoanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <loan-id>",
		Short: "Show one loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var loan models.Loan
			if err := c.Get(cmd.Context(), "/loans/"+strconv.Itoa(id), nil, &loan); err != nil {
				return err
			}
			render([]models.Loan{loan})
			return nil
		},
	}
}
