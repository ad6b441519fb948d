package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/metrics"
)

const (
	keyPrefix = "larder-"
	keySuffix = ".db.enc"
	keyLayout = "20060102T150405.000000000Z"
)

func isBackupKey(name string) bool {
	return strings.HasPrefix(name, keyPrefix) && strings.HasSuffix(name, keySuffix)
}

// Config holds backup manager configuration.
type Config struct {
	Passphrase string
	// Keep is how many of the newest backups survive pruning; zero keeps all.
	Keep int
}

// Manager snapshots the database, seals the snapshot and hands it to a Target.
type Manager struct {
	db     *sql.DB
	target Target
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(db *sql.DB, target Target, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{db: db, target: target, cfg: cfg, logger: logger, now: time.Now}
}

// Run writes one backup and prunes old ones. It returns the new key.
func (m *Manager) Run(ctx context.Context) (string, error) {
	started := m.now()
	key, err := m.run(ctx)
	if err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		m.logger.Error("backup failed", "error", err)
		return "", err
	}
	metrics.BackupRuns.WithLabelValues("ok").Inc()
	m.logger.Info("backup written", "key", key, "duration", time.Since(started))

	if err := m.prune(ctx); err != nil {
		m.logger.Warn("backup pruning failed", "error", err)
	}
	return key, nil
}

func (m *Manager) run(ctx context.Context) (string, error) {
	if m.cfg.Passphrase == "" {
		return "", errors.New("backup passphrase not configured")
	}

	tmpDir, err := os.MkdirTemp("", "larder-backup-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := keyPrefix + m.now().UTC().Format(keyLayout) + keySuffix
	if err := m.target.Put(ctx, key, sealed); err != nil {
		return "", err
	}
	return key, nil
}

// List returns stored backup keys, oldest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.target.List(ctx)
}

func (m *Manager) prune(ctx context.Context) error {
	if m.cfg.Keep <= 0 {
		return nil
	}
	keys, err := m.target.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= m.cfg.Keep {
		return nil
	}
	var errs []error
	for _, key := range keys[:len(keys)-m.cfg.Keep] {
		if err := m.target.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		m.logger.Debug("pruned backup", "key", key)
	}
	return errors.Join(errs...)
}

// Restore fetches key, decrypts it, checks it is a sound larder database and
// writes it to dstPath. An existing file is replaced only when force is set;
// the server must not be running against dstPath.
func Restore(ctx context.Context, target Target, key, passphrase, dstPath string, force bool) error {
	if _, err := os.Stat(dstPath); err == nil && !force {
		return fmt.Errorf("%s already exists", dstPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dstPath, err)
	}

	sealed, err := target.Get(ctx, key)
	if err != nil {
		return err
	}
	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dstPath)
	tmp, err := os.CreateTemp(dir, ".larder-restore-*.db")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(plaintext); err != nil {
		tmp.Close()
		return fmt.Errorf("write restored db: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close restored db: %w", err)
	}

	if err := verify(ctx, tmpPath); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")
	return nil
}

func verify(ctx context.Context, path string) error {
	db, err := database.OpenNoMigrate(path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	var tables int
	err = db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('pantry_items', 'contributions')`,
	).Scan(&tables)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if tables != 2 {
		return errors.New("restored file is not a larder database")
	}
	return nil
}
