package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"villagenird/internal/ops"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	var dataDir, out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the data directory as .tar.gz",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if out == "" {
				out = filepath.Join("backups", "nird-"+now.Format("20060102T150405Z")+".tar.gz")
			}
			m, err := ops.Backup(dataDir, out, now)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d files)\n", out, len(m.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "path to data directory")
	cmd.Flags().StringVar(&out, "out", "", "output archive path (.tar.gz)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var archive, target string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Unpack a backup archive and verify its checksums",
		RunE: func(cmd *cobra.Command, args []string) error {
			if archive == "" {
				return errors.New("--archive is required")
			}
			m, err := ops.Restore(archive, target)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d files into %s\n", len(m.Files), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "input backup archive (.tar.gz)")
	cmd.Flags().StringVar(&target, "target-dir", "data-restored", "restore target directory")
	return cmd
}

func newDrillCmd() *cobra.Command {
	var dataDir, workDir string
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Back up, restore and compare the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := ops.Drill(cmd.Context(), dataDir, workDir, time.Now())
			if err != nil {
				return fmt.Errorf("drill failed: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "backup:", rep.Archive)
			fmt.Fprintln(w, "restored:", rep.RestoreDir)
			fmt.Fprintln(w, "digest:", rep.Digest)
			fmt.Fprintln(w, "sessions:", rep.Sessions)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "path to data directory")
	cmd.Flags().StringVar(&workDir, "work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	return cmd
}
