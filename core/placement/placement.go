// Package placement decides where a task's bytes are written while the
// transfer runs and how they reach their final path afterwards. Two
// independently toggleable policies keep partial files away from the
// final path: a ".download" suffix in the destination directory, and a
// hidden staging subdirectory whose contents move into place only once
// complete.
package placement

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// StagingDirName is the hidden subdirectory used by the
// move-after-complete policy, nested under the destination root.
const StagingDirName = ".chatdl-staging"

// DownloadSuffix marks in-progress files under the suffix policy.
const DownloadSuffix = ".download"

// Placement is the planned write path and final path for one task.
type Placement struct {
	// FinalPath is where the completed file must end up.
	FinalPath string
	// WritePath is where the transfer writes. Equal to FinalPath when
	// neither policy is active.
	WritePath string

	addSuffix bool
	moveAfter bool
}

// Paths resolves the write and final paths for a task without touching
// the filesystem, so deletion can locate artifacts of tasks that never
// started.
func Paths(saveDir, resolvedName string, addSuffix, moveAfter bool) *Placement {
	p := &Placement{
		FinalPath: filepath.Join(saveDir, resolvedName),
		addSuffix: addSuffix,
		moveAfter: moveAfter,
	}

	writeDir := saveDir
	if moveAfter {
		writeDir = filepath.Join(saveDir, StagingDirName)
	}
	writeName := resolvedName
	if addSuffix {
		writeName += DownloadSuffix
	}
	p.WritePath = filepath.Join(writeDir, writeName)
	return p
}

// Plan resolves the write and final paths for a task and creates the
// needed directories. Directory creation is idempotent: an existing
// directory is success.
func Plan(saveDir, resolvedName string, addSuffix, moveAfter bool) (*Placement, error) {
	if resolvedName == "" {
		return nil, fmt.Errorf("empty resolved file name")
	}

	p := Paths(saveDir, resolvedName, addSuffix, moveAfter)
	if err := os.MkdirAll(filepath.Dir(p.WritePath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(p.WritePath), err)
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", saveDir, err)
	}
	return p, nil
}

// Finalize moves the completed file from the write path to the final
// path. Within one filesystem this is a single atomic rename; across
// filesystems it falls back to copy-then-delete, writing the copy to a
// temporary name and renaming it into place so no observer ever sees a
// truncated file at the final path.
func (p *Placement) Finalize() error {
	if p.WritePath == p.FinalPath {
		return nil
	}
	if err := os.Rename(p.WritePath, p.FinalPath); err == nil {
		return nil
	} else if !p.moveAfter {
		// Suffix strip happens in the same directory, so rename cannot
		// cross filesystems; any failure is real.
		return fmt.Errorf("rename %s: %w", p.WritePath, err)
	}

	log.Debugf("rename across filesystems failed, copying %s -> %s", p.WritePath, p.FinalPath)
	if err := copyThenDelete(p.WritePath, p.FinalPath); err != nil {
		return err
	}
	return nil
}

// Discard removes whatever staged or partial artifact the policy left
// behind, used on pause and failure. With move_after_complete the
// destination path was never touched, so discarding cannot corrupt it.
func (p *Placement) Discard() {
	if p.WritePath == p.FinalPath {
		// Direct-write mode: the partial file sits at the final path.
		removeIfExists(p.WritePath)
		return
	}
	removeIfExists(p.WritePath)
}

// Artifacts lists every path that may hold bytes for this placement,
// staged and final, for delete-with-file handling.
func (p *Placement) Artifacts() []string {
	if p.WritePath == p.FinalPath {
		return []string{p.FinalPath}
	}
	return []string{p.WritePath, p.FinalPath}
}

func copyThenDelete(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		removeIfExists(tmp)
		return fmt.Errorf("copy to %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		removeIfExists(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		removeIfExists(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	removeIfExists(src)
	return nil
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove %s: %v", path, err)
	}
}
