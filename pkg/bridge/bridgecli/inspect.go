package bridgecli

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/neuroplastio/keybridge/internal/inputsvc"
	"github.com/neuroplastio/keybridge/internal/journalsvc"
	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/spf13/cobra"
	"github.com/sstallion/go-hid"
	"go.uber.org/zap"
)

func NewJournal(app appProvider) *cobra.Command {
	var since, until string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the event journal",
	}
	cmd.PersistentFlags().StringVar(&since, "since", "", "start of the window (RFC 3339 or epoch seconds)")
	cmd.PersistentFlags().StringVar(&until, "until", "", "end of the window, exclusive")

	openWindow := func() (*journalsvc.Journal, time.Time, time.Time, error) {
		from, err := parseTime(since)
		if err != nil {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("invalid --since: %w", err)
		}
		to, err := parseTime(until)
		if err != nil {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("invalid --until: %w", err)
		}
		a := app()
		j, err := journalsvc.Open(a.log.Named("journal"), a.config.Journal.Dir)
		if err != nil {
			return nil, time.Time{}, time.Time{}, err
		}
		return j, from, to, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write journaled records as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, from, to, err := openWindow()
			if err != nil {
				return err
			}
			defer j.Close()
			_, err = j.Export(cmd.OutOrStdout(), from, to)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clicks",
		Short: "Write the clicks of a window as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, from, to, err := openWindow()
			if err != nil {
				return err
			}
			defer j.Close()
			clicks, err := j.Clicks(from, to)
			if err != nil {
				return err
			}
			jsonB, err := json.MarshalIndent(clicks, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	})
	return cmd
}

// parseTime accepts RFC 3339 or fractional epoch seconds. Empty is the zero
// time, an open window end.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(math.Round(frac*1e3))*int64(time.Millisecond)), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func NewKeymap() *cobra.Command {
	return &cobra.Command{
		Use:   "keymap [name]",
		Short: "List keymaps or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range keymap.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			km, err := keymap.ByName(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tHEX\tKIND\tKEY")
			for _, e := range km.Entries() {
				fmt.Fprintf(w, "%d\t0x%02X\t%s\t%s\n", e.Code, e.Code, e.Key.Kind, e.Key.Name)
			}
			return w.Flush()
		},
	}
}

func NewDevices(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List keyboards the evdev and hid backends can read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tPATH\tNAME")

			evdevDevices, err := inputsvc.EvdevDevices()
			switch {
			case errors.Is(err, inputsvc.ErrUnsupported):
				a.log.Debug("Skipping evdev devices", zap.Error(err))
			case err != nil:
				return err
			}
			for _, d := range evdevDevices {
				fmt.Fprintf(w, "evdev\t%s\t%s\n", d.Path, d.Name)
			}

			if err := hid.Init(); err != nil {
				return fmt.Errorf("failed to initialize hidapi: %w", err)
			}
			defer hid.Exit()
			hidDevices, err := inputsvc.HIDKeyboards(a.config.HID.VendorID, a.config.HID.ProductID)
			if err != nil {
				return err
			}
			for _, d := range hidDevices {
				fmt.Fprintf(w, "hid\t%s\t%s (%04x:%04x)\n", d.Path, d.Name, d.VendorID, d.ProductID)
			}
			return w.Flush()
		},
	}
}
