package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/discovery"
	"github.com/nerrad567/wiz-platform/internal/host"
	"github.com/nerrad567/wiz-platform/internal/platform"
)

func newAccessoriesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accessories",
		Short: "Inspect and manage cached accessories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached accessories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listAccessories(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <uuid>",
		Short: "Remove a cached accessory",
		Long: `Remove a cached accessory and unregister it from the host. If the device is
still on the network it is bound to a new accessory the next time the
platform runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeAccessory(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	})

	return cmd
}

func listAccessories(ctx context.Context, opts *rootOptions, out, logOut io.Writer) error {
	st, err := openStore(ctx, opts, logOut)
	if err != nil {
		return err
	}
	defer st.Close()

	shells, err := st.runtime(nil).Accessories(ctx)
	if err != nil {
		return err
	}
	if len(shells) == 0 {
		fmt.Fprintln(out, "no cached accessories")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tNAME\tDEVICE ID\tCATEGORY")
	for _, s := range shells {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.UUID, s.DisplayName, s.DeviceID, accessory.CategoryName(s.Category))
	}
	return w.Flush()
}

func removeAccessory(ctx context.Context, opts *rootOptions, uuid string, out, logOut io.Writer) error {
	st, err := openStore(ctx, opts, logOut)
	if err != nil {
		return err
	}
	defer st.Close()

	runtime := st.runtime(nil)
	controller, err := platform.New(platform.Options{
		Host:      runtime,
		Discovery: idleDiscovery{},
		Logger:    st.log.Component("platform"),
		Version:   version,
	})
	if err != nil {
		return err
	}

	var target *accessory.Shell
	_, err = runtime.Replay(ctx, func(s *accessory.Shell) {
		if s.UUID == uuid {
			target = s
		}
		_ = controller.ConfigureAccessory(s) //nolint:errcheck // replayed shells always carry a uuid
	})
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: %s", host.ErrAccessoryNotFound, uuid)
	}

	if err := controller.RemoveAccessory(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(out, "removed %s (%s)\n", target.UUID, target.DisplayName)
	return nil
}

// idleDiscovery satisfies platform.Discovery for commands that never start
// discovery.
type idleDiscovery struct{}

func (idleDiscovery) StartDiscovery(discovery.Options) error { return nil }
func (idleDiscovery) StopDiscovery() error                   { return discovery.ErrNotStarted }
