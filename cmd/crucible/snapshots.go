package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	"github.com/felixgeelhaar/crucible/internal/storage/sqlite"
)

var errNoSnapshots = errors.New("snapshots require the sqlite storage backend")

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved state snapshots (sqlite backend)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			store, ok := a.Store.(*sqlite.StateStore)
			if !ok {
				return errNoSnapshots
			}
			snaps, err := store.Snapshots(ctx)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Println("No snapshots yet")
				return nil
			}
			for _, s := range snaps {
				fmt.Printf("%6d  %s  %d bytes\n", s.ID, s.SavedAt.Local().Format("2006-01-02 15:04:05"), s.Size)
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Restore the state saved in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			store, ok := a.Store.(*sqlite.StateStore)
			if !ok {
				return errNoSnapshots
			}
			if err := store.Restore(ctx, id); err != nil {
				return err
			}
			fmt.Printf("✓ Restored snapshot %d\n", id)
			return nil
		})
	},
}

func init() {
	snapshotsCmd.AddCommand(restoreCmd)
}
