package tenant

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tavares/hospstock/internal/access"
)

// ArchiveAndRemove retires a unit: the cached connection is closed,
// an archival copy of the data file is taken, the registry row is
// soft-flagged inactive, and the unit id is scrubbed from every
// user's access list.
//
// The scrub is best-effort per user: a failure for one user is logged
// and skipped, and the removal itself still goes through. The data
// file is never deleted here; the archival copy exists precisely so a
// later manual removal is safe.
func (m *Manager) ArchiveAndRemove(ctx context.Context, unitID string, backupsDir string) error {
	desc, err := m.registry.ResolveConfig(unitID)
	if err != nil {
		return err
	}
	if !desc.Active {
		return fmt.Errorf("%w: %s is already archived", ErrTenantNotFound, unitID)
	}

	m.CloseConnection(unitID)

	if desc.Backend == BackendEmbedded {
		if _, err := m.archiveFile(desc, backupsDir); err != nil {
			return fmt.Errorf("failed to archive unit %s: %w", unitID, err)
		}
	}

	if err := m.registry.Deactivate(unitID); err != nil {
		return err
	}
	m.log.Infow("unit archived", "unit", unitID)

	m.scrubUserAccess(ctx, unitID)
	return nil
}

// archiveFile copies the unit's database file into the backups
// directory under a timestamped name. Missing files are fine: nothing
// to archive.
func (m *Manager) archiveFile(desc Descriptor, backupsDir string) (string, error) {
	src := m.registry.UnitPath(desc)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return "", nil
	}

	dir := filepath.Join(m.registry.DataDir(), backupsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s.db", desc.ID, time.Now().UTC().Format("20060102150405")))

	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	m.log.Infow("unit database archived", "unit", desc.ID, "archive", dst)
	return dst, nil
}

// scrubUserAccess removes the unit id from every user's access list in
// the central database. Best-effort per user.
func (m *Manager) scrubUserAccess(ctx context.Context, unitID string) {
	central, err := m.Resolve(ctx, "")
	if err != nil {
		m.log.Warnw("access scrub skipped, central unavailable", "unit", unitID, "error", err)
		return
	}

	if err := central.Execute(ctx, "SELECT id, unit_access FROM users"); err != nil {
		m.log.Warnw("access scrub skipped", "unit", unitID, "error", err)
		return
	}
	users, err := central.FetchAll()
	if err != nil {
		m.log.Warnw("access scrub skipped", "unit", unitID, "error", err)
		return
	}

	for _, row := range users {
		raw := row.String("unit_access")
		if !access.Contains(raw, unitID) {
			continue
		}
		var kept []string
		for _, id := range access.Decode(raw) {
			if id != unitID {
				kept = append(kept, id)
			}
		}
		err := central.Execute(ctx,
			"UPDATE users SET unit_access = ? WHERE id = ?", access.Encode(kept), row.Int("id"))
		if err != nil {
			m.log.Warnw("failed to scrub unit from user access list",
				"unit", unitID, "user", row.Int("id"), "error", err)
			continue
		}
	}
	if err := central.Commit(); err != nil {
		m.log.Warnw("access scrub commit failed", "unit", unitID, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
