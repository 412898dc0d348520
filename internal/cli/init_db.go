package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// InitDBCommand materializes the central database and every registered
// unit database, creating missing tables and columns.
type InitDBCommand struct {
	Verbose bool
}

func NewInitDBCommand() *InitDBCommand {
	return &InitDBCommand{}
}

func (cmd *InitDBCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)

	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every unit as it is initialized")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s init-db [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the central database and initialize the schema of every\n")
		fmt.Fprintf(os.Stderr, "registered unit. Safe to run repeatedly: existing tables are kept\n")
		fmt.Fprintf(os.Stderr, "and only missing tables and columns are added.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Prepare a fresh installation:\n")
		fmt.Fprintf(os.Stderr, "  %s init-db\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Repair schema drift after an upgrade:\n")
		fmt.Fprintf(os.Stderr, "  %s init-db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *InitDBCommand) Run() error {
	fmt.Println("Database Initialization")
	fmt.Println("=======================")

	manager, cfg, err := buildManager()
	if err != nil {
		return fmt.Errorf("failed to initialize tenant manager: %w", err)
	}
	defer manager.CloseAll()

	ctx := context.Background()

	fmt.Printf("Data directory: %s\n", cfg.Database.DataDir)
	fmt.Println("\nInitializing central database...")
	if _, err := manager.CentralDB(ctx); err != nil {
		return fmt.Errorf("failed to initialize central database: %w", err)
	}
	fmt.Println("Central database ready")

	units, err := manager.Registry().ListAll()
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	var initialized, failed int
	for id, desc := range units {
		if !desc.Active {
			if cmd.Verbose {
				fmt.Printf("  -- %s (archived, skipped)\n", id)
			}
			continue
		}
		if err := manager.EnsureSchema(ctx, id); err != nil {
			failed++
			fmt.Printf("  [ERROR] %s: %v\n", id, err)
			continue
		}
		initialized++
		if cmd.Verbose {
			fmt.Printf("  [OK] %s\n", id)
		}
	}

	fmt.Printf("\nUnits initialized: %d\n", initialized)
	if failed > 0 {
		return fmt.Errorf("%d units failed to initialize", failed)
	}

	fmt.Println("\nInitialization complete!")
	return nil
}
