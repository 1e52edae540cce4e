package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/crucial707/hci-lending/cmd/cli/assets"
	"github.com/crucial707/hci-lending/cmd/cli/audit"
	"github.com/crucial707/hci-lending/cmd/cli/auth"
	"github.com/crucial707/hci-lending/cmd/cli/loans"
	"github.com/crucial707/hci-lending/cmd/cli/maintenance"
	"github.com/crucial707/hci-lending/cmd/cli/root"
	"github.com/crucial707/hci-lending/cmd/cli/scan"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	assets.InitAssets(rootCmd)
	loans.InitLoans(rootCmd)
	maintenance.InitMaintenance(rootCmd)
	audit.InitAudit(rootCmd)
	scan.InitScan(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
