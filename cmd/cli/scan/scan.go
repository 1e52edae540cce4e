package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/crucial707/hci-lending/cmd/cli/client"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/qrid"
	"github.com/crucial707/hci-lending/internal/scan"
	"github.com/spf13/cobra"
)

// Actions applied to a confirmed scan.
const (
	actionShow        = "show"
	actionLoan        = "loan"
	actionMaintenance = "maintenance"
)

func InitScan(rootCmd *cobra.Command) {
	rootCmd.AddCommand(scanCmd())
}

type scanOpts struct {
	action     string
	borrowerID int
	kind       string
	yes        bool
	cooldown   int
}

func scanCmd() *cobra.Command {
	var o scanOpts

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read asset labels from a barcode reader and act on each confirmed asset",
		Long: `Reads one scanned payload per line from stdin (a USB reader in keyboard mode works).
Each valid label is looked up and shown for confirmation; answer y to accept, anything else
to keep scanning. Accepted assets are shown, loaned (--action loan --borrower N) or sent to
maintenance (--action maintenance --type T). End with Ctrl-D.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch o.action {
			case actionShow:
			case actionLoan:
				if o.borrowerID <= 0 {
					return fmt.Errorf("--borrower is required with --action loan")
				}
			case actionMaintenance:
				if _, ok := models.ParseMaintenanceType(o.kind); !ok {
					return fmt.Errorf("invalid --type %q: use preventive or corrective", o.kind)
				}
			default:
				return fmt.Errorf("unknown --action %q", o.action)
			}
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), c, o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&o.action, "action", actionShow, "show | loan | maintenance")
	cmd.Flags().IntVar(&o.borrowerID, "borrower", 0, "borrower user id for --action loan")
	cmd.Flags().StringVar(&o.kind, "type", "preventive", "maintenance type for --action maintenance")
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "accept every valid scan without asking")
	cmd.Flags().IntVar(&o.cooldown, "cooldown", 2, "seconds a handled label is ignored")
	return cmd
}

// runScan feeds input lines to the controller one scan at a time. While a confirmation is
// pending, the next line is the operator's answer rather than a payload.
func runScan(ctx context.Context, c *client.Client, o scanOpts, in io.Reader, out io.Writer) error {
	var awaiting atomic.Bool
	answers := make(chan string)

	hooks := scan.Hooks{
		Lookup: func(ctx context.Context, identifier string) (models.Asset, error) {
			var a models.Asset
			err := c.Get(ctx, "/assets/"+identifier, nil, &a)
			return a, err
		},
		Confirm: func(ctx context.Context, cand scan.Candidate) (bool, error) {
			fmt.Fprintf(out, "Asset %d %q (%s). Accept? [y/N] ", cand.Asset.ID, cand.Asset.Name, cand.Asset.State)
			if o.yes {
				fmt.Fprintln(out, "y")
				return true, nil
			}
			awaiting.Store(true)
			defer awaiting.Store(false)
			select {
			case ans := <-answers:
				return strings.EqualFold(strings.TrimSpace(ans), "y"), nil
			case <-ctx.Done():
				return false, ctx.Err()
			}
		},
		Handoff: func(ctx context.Context, cand scan.Candidate) error {
			return handoff(ctx, c, o, cand, out)
		},
		Rejected: func(payload string, reason error) {
			fmt.Fprintf(out, "ignored %q: %v\n", payload, reason)
		},
	}

	ctl, err := scan.NewController(wedgeCamera{}, hooks, scan.Options{
		Extract:  []qrid.Option{qrid.Numeric()},
		Cooldown: secondsOr(o.cooldown, scan.DefaultCooldown),
	})
	if err != nil {
		return err
	}
	if err := ctl.Start(ctx); err != nil {
		return err
	}
	defer ctl.Stop()

	fmt.Fprintln(out, "Ready. Scan a label (Ctrl-D to finish).")
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if awaiting.Load() {
			select {
			case answers <- line:
				awaiting.Store(false)
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			// The next label after a hand-off starts a new scan.
			ctl.Resume()
			if !ctl.OnDecode(line) {
				continue
			}
		}
		if err := settle(ctx, ctl, &awaiting); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return settle(ctx, ctl, &awaiting)
}

// settle waits until the accepted scan either asks for confirmation or leaves processing, so the
// next input line is read as an answer only when a prompt is showing. At end of input a pending
// confirmation can no longer be answered and is abandoned.
func settle(ctx context.Context, ctl *scan.Controller, awaiting *atomic.Bool) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for ctl.State() == scan.StateProcessing && !awaiting.Load() {
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func secondsOr(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func handoff(ctx context.Context, c *client.Client, o scanOpts, cand scan.Candidate, out io.Writer) error {
	id, err := strconv.Atoi(cand.Identifier)
	if err != nil {
		return err
	}
	switch o.action {
	case actionLoan:
		var loan models.Loan
		if err := c.Post(ctx, "/loans", map[string]int{"asset_id": id, "borrower_id": o.borrowerID}, &loan); err != nil {
			fmt.Fprintf(out, "loan failed: %v\n", err)
			return err
		}
		fmt.Fprintf(out, "Loan %d created, due %s\n", loan.ID, loan.ExpectedReturnAt.Local().Format("2006-01-02"))
	case actionMaintenance:
		var rec models.MaintenanceRecord
		if err := c.Post(ctx, "/maintenance", map[string]any{"asset_id": id, "type": o.kind}, &rec); err != nil {
			fmt.Fprintf(out, "maintenance failed: %v\n", err)
			return err
		}
		fmt.Fprintf(out, "Maintenance %d started\n", rec.ID)
	default:
		fmt.Fprintf(out, "Asset %d: %s, category %d, %s\n", cand.Asset.ID, cand.Asset.Name, cand.Asset.CategoryID, cand.Asset.State)
	}
	return nil
}
