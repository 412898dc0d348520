package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// ArchiveUnitCommand retires a unit: its connection is closed, its
// database file is backed up and the registry row is flagged inactive.
type ArchiveUnitCommand struct {
	ID string
}

func NewArchiveUnitCommand() *ArchiveUnitCommand {
	return &ArchiveUnitCommand{}
}

func (cmd *ArchiveUnitCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("archive-unit", flag.ExitOnError)

	fs.StringVar(&cmd.ID, "id", "", "Unit identifier to archive (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s archive-unit -id <unit_id>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Archive a unit. A timestamped copy of its database file is written\n")
		fmt.Fprintf(os.Stderr, "to the backups directory, the unit stops resolving, and its id is\n")
		fmt.Fprintf(os.Stderr, "removed from every user's access list. The original data file is\n")
		fmt.Fprintf(os.Stderr, "kept on disk.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s archive-unit -id north_wing\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ID == "" {
		return fmt.Errorf("required flag -id not provided")
	}

	return nil
}

func (cmd *ArchiveUnitCommand) Run() error {
	manager, cfg, err := buildManager()
	if err != nil {
		return fmt.Errorf("failed to initialize tenant manager: %w", err)
	}
	defer manager.CloseAll()

	ctx := context.Background()

	if err := manager.ArchiveAndRemove(ctx, cmd.ID, cfg.Database.BackupsDir); err != nil {
		return fmt.Errorf("failed to archive unit %s: %w", cmd.ID, err)
	}

	fmt.Printf("Unit %s archived\n", cmd.ID)
	return nil
}
