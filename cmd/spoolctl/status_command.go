package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	printingapp "github.com/spoolgate/backend/internal/application/printing"
	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
)

type statusReport struct {
	Daemon         string                 `json:"daemon"`
	TotalPrinters  int                    `json:"totalPrinters"`
	OnlinePrinters int                    `json:"onlinePrinters"`
	Binaries       []spooler.BinaryStatus `json:"binaries,omitempty"`
}

// requirementLister is implemented by adapters that shell out to binaries
type requirementLister interface {
	Requirements() []spooler.Requirement
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the spooler daemon and its printers",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := ctx.adapter()
			if err != nil {
				return err
			}
			snapshot, err := refreshOnce(cmd, adapter)
			if err != nil {
				return err
			}

			report := statusReport{
				Daemon:         snapshot.DaemonState().String(),
				TotalPrinters:  snapshot.TotalDevices(),
				OnlinePrinters: snapshot.OnlineCount,
			}
			if lister, ok := adapter.(requirementLister); ok {
				report.Binaries = spooler.CheckBinaries(lister.Requirements())
			}

			if ctx.wantJSON() {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:  %s\n", report.Daemon)
			fmt.Fprintf(out, "Printers: %d online of %d\n", report.OnlinePrinters, report.TotalPrinters)
			if len(report.Binaries) == 0 {
				return nil
			}
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(report.Binaries))
			for _, b := range report.Binaries {
				location := b.Path
				if !b.Available {
					location = b.Detail
				}
				rows = append(rows, []string{b.Name, yesNo(b.Available), yesNo(!b.Optional), location})
			}
			return writeTable(cmd, []string{"Binary", "Found", "Required", "Path"}, rows, nil)
		},
	}
}

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"printers"},
		Short:   "List printers known to the spooler",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := ctx.adapter()
			if err != nil {
				return err
			}
			snapshot, err := refreshOnce(cmd, adapter)
			if err != nil {
				return err
			}

			if ctx.wantJSON() {
				return writeJSON(cmd, snapshot.Devices)
			}
			if len(snapshot.Devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No printers found")
				return nil
			}

			rows := make([][]string, 0, len(snapshot.Devices))
			for i, d := range snapshot.Devices {
				rows = append(rows, []string{strconv.Itoa(i + 1), d.Name, d.State.String(), d.RawStatus, d.Description})
			}
			return writeTable(cmd, []string{"#", "Name", "State", "Status", "Description"}, rows,
				[]columnAlignment{alignRight})
		},
	}
}

func newOptionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "options <printer>",
		Short: "List the options a printer advertises",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidateDeviceName(args[0]); err != nil {
				return err
			}
			adapter, err := ctx.adapter()
			if err != nil {
				return err
			}

			options := adapter.QueryDeviceOptions(cmd.Context(), args[0])
			if ctx.wantJSON() {
				if options == nil {
					options = []domain.DeviceOption{}
				}
				return writeJSON(cmd, options)
			}
			if len(options) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No options reported for %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(options))
			for _, o := range options {
				rows = append(rows, []string{o.Key, o.Label, o.Default, fmt.Sprint(o.Values)})
			}
			return writeTable(cmd, []string{"Key", "Label", "Default", "Values"}, rows, nil)
		},
	}
}

// refreshOnce runs one refresh through the status monitor
func refreshOnce(cmd *cobra.Command, adapter spooler.Adapter) (*domain.StatusSnapshot, error) {
	monitor, err := printingapp.NewStatusMonitor(adapter, printingapp.StatusMonitorConfig{})
	if err != nil {
		return nil, err
	}
	return monitor.Refresh(cmd.Context()), nil
}
