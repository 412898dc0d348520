package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// MigrateCommand repairs schema drift in existing databases, adding
// tables and columns introduced after they were created.
type MigrateCommand struct {
	Unit string
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	fs.StringVar(&cmd.Unit, "unit", "", "Repair a single unit instead of every database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Bring existing databases up to the expected schema. Missing tables\n")
		fmt.Fprintf(os.Stderr, "and columns are added; nothing is dropped or rewritten. Without\n")
		fmt.Fprintf(os.Stderr, "-unit, the central database and every active unit are repaired.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Repair everything after an upgrade:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Repair one unit:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate -unit north_wing\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	fmt.Println("Schema Migration")
	fmt.Println("================")

	manager, _, err := buildManager()
	if err != nil {
		return fmt.Errorf("failed to initialize tenant manager: %w", err)
	}
	defer manager.CloseAll()

	ctx := context.Background()

	if cmd.Unit != "" {
		fmt.Printf("Repairing unit %s...\n", cmd.Unit)
		if err := manager.EnsureSchema(ctx, cmd.Unit); err != nil {
			return fmt.Errorf("failed to repair unit %s: %w", cmd.Unit, err)
		}
		fmt.Println("Migration complete!")
		return nil
	}

	fmt.Println("Repairing central database...")
	if err := manager.EnsureSchema(ctx, ""); err != nil {
		return fmt.Errorf("failed to repair central database: %w", err)
	}

	units, err := manager.Registry().ListAll()
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	var repaired, failed int
	for id, desc := range units {
		if !desc.Active {
			continue
		}
		if err := manager.EnsureSchema(ctx, id); err != nil {
			failed++
			fmt.Printf("  [ERROR] %s: %v\n", id, err)
			continue
		}
		repaired++
		fmt.Printf("  [OK] %s\n", id)
	}

	fmt.Printf("\nUnits repaired: %d\n", repaired)
	if failed > 0 {
		return fmt.Errorf("%d units failed to migrate", failed)
	}

	fmt.Println("\nMigration complete!")
	return nil
}
