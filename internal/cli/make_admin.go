package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/entities"
)

// MakeAdminCommand creates an administrator account, or promotes an
// existing user to administrator.
type MakeAdminCommand struct {
	Name     string
	Email    string
	Password string
}

func NewMakeAdminCommand() *MakeAdminCommand {
	return &MakeAdminCommand{}
}

func (cmd *MakeAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("make-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "Administrator", "Display name for the new account")
	fs.StringVar(&cmd.Email, "email", "", "Email address to log in with (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new account (required unless the user already exists)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s make-admin -email <address> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account in the central database. If the\n")
		fmt.Fprintf(os.Stderr, "email already belongs to a user, that user is promoted instead and\n")
		fmt.Fprintf(os.Stderr, "the password flag is ignored.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Bootstrap the first account of a fresh installation:\n")
		fmt.Fprintf(os.Stderr, "  %s make-admin -email admin@hospital.org -password 'choose a long one'\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Promote an existing user:\n")
		fmt.Fprintf(os.Stderr, "  %s make-admin -email ana@hospital.org\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}

	return nil
}

func (cmd *MakeAdminCommand) Run() error {
	manager, cfg, err := buildManager()
	if err != nil {
		return fmt.Errorf("failed to initialize tenant manager: %w", err)
	}
	defer manager.CloseAll()

	ctx := context.Background()
	repo := users.NewRepository(manager)
	service := auth.NewService(repo, cfg.Auth)

	// Promote first: an existing account keeps its password.
	existing, err := repo.GetByEmail(ctx, cmd.Email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			fmt.Printf("%s is already an administrator\n", cmd.Email)
			return nil
		}
		if err := repo.SetRole(ctx, existing.ID, entities.RoleAdmin); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		fmt.Printf("Promoted %s to administrator\n", cmd.Email)
		return nil

	case errors.Is(err, users.ErrNotFound):
		// Fall through to creation.

	default:
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if cmd.Password == "" {
		return fmt.Errorf("user %s does not exist, provide -password to create it", cmd.Email)
	}

	user, err := service.CreateUser(ctx, cmd.Name, cmd.Email, cmd.Password, entities.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Created administrator %s (id %d)\n", user.Email, user.ID)
	return nil
}
