package ops

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"villagenird/internal/progress"
)

type DrillReport struct {
	Archive    string `json:"archive"`
	RestoreDir string `json:"restoreDir"`
	Digest     string `json:"digest"`
	Files      int    `json:"files"`
	Sessions   int    `json:"sessions"`
}

// Drill backs dataDir up into workDir, restores it next to the archive and
// checks the restored tree matches and its sessions still load.
func Drill(ctx context.Context, dataDir, workDir string, now time.Time) (DrillReport, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return DrillReport{}, err
	}
	ts := now.UTC().Format("20060102T150405Z")
	rep := DrillReport{
		Archive:    filepath.Join(workDir, "nird-drill-"+ts+".tar.gz"),
		RestoreDir: filepath.Join(workDir, "nird-drill-restore-"+ts),
	}

	m, err := Backup(dataDir, rep.Archive, now)
	if err != nil {
		return DrillReport{}, fmt.Errorf("backup: %w", err)
	}
	if _, err := Restore(rep.Archive, rep.RestoreDir); err != nil {
		return DrillReport{}, fmt.Errorf("restore: %w", err)
	}
	rep.Files = len(m.Files)

	srcDigest, err := DirDigest(dataDir)
	if err != nil {
		return DrillReport{}, err
	}
	restoredDigest, err := DirDigest(rep.RestoreDir)
	if err != nil {
		return DrillReport{}, err
	}
	if srcDigest != restoredDigest {
		return DrillReport{}, fmt.Errorf("digest mismatch after restore: src=%s restored=%s", srcDigest, restoredDigest)
	}
	rep.Digest = srcDigest

	repo, err := progress.NewFileRepo(rep.RestoreDir)
	if err != nil {
		return DrillReport{}, fmt.Errorf("load restored sessions: %w", err)
	}
	recs, err := repo.List(ctx)
	if err != nil {
		return DrillReport{}, err
	}
	rep.Sessions = len(recs)
	return rep, nil
}

// DirDigest hashes every regular file's path and content under root.
func DirDigest(root string) (string, error) {
	root = filepath.Clean(root)
	entries := []string{}
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	}); err != nil {
		return "", err
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, rel := range entries {
		_, _ = io.WriteString(h, rel+"\n")
		b, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return "", err
		}
		_, _ = h.Write(b)
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
