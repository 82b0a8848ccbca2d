package admincli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "devices", Short: "Inspect and register devices"}
	cmd.AddCommand(newDevicesListCommand())
	cmd.AddCommand(newDevicesAddCommand())
	return cmd
}

func newDevicesListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			devices, err := registry.ListDevices(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(devices)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), devicesTable(devices, time.Now()))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newDevicesAddCommand() *cobra.Command {
	var (
		in        service.DeviceInput
		notes     string
		expiresIn time.Duration
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			if notes != "" {
				in.Notes = &notes
			}
			if expiresIn > 0 {
				in.ExpiresAt = domain.TimestampPtr(time.Now().Add(expiresIn))
			}
			createdBy := "cli"
			in.CreatedBy = &createdBy
			dev, err := registry.CreateDevice(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dev.UUID)
			return err
		},
	}
	cmd.Flags().StringVar(&in.DeviceName, "name", "", "device name")
	cmd.Flags().StringVar(&in.UUID, "uuid", "", "device UUID (generated when empty)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "expire the registration after this long")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func devicesTable(devices []domain.DeviceRegistration, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("UUID", "NAME", "ACTIVE", "EXPIRES", "LAST USED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, d := range devices {
		active := strconv.FormatBool(d.IsActive)
		if d.ExpiredAt(now) {
			active += " (expired)"
		}
		t.Row(d.UUID, d.DeviceName, active, formatTimestamp(d.ExpiresAt), formatTimestamp(d.LastUsed))
	}
	return t.Render()
}

func formatTimestamp(ts *domain.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Time.Local().Format("2006-01-02 15:04")
}
