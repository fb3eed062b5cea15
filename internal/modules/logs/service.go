package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTailLines bounds how much of a file the viewer returns.
	DefaultTailLines = 500
)

var (
	ErrOutsideLogDir = errors.New("path escapes the log directory")
	ErrNotFound      = errors.New("log file not found")
)

// FileInfo describes one log file for the viewer.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	AgeHours float64   `json:"age_hours"`
}

// CleanupReport summarizes an age-based cleanup run. Cleanup is
// best-effort: files that cannot be removed are skipped and counted.
type CleanupReport struct {
	Scanned    int   `json:"scanned"`
	Deleted    int   `json:"deleted"`
	Skipped    int   `json:"skipped"`
	Archived   int   `json:"archived"`
	FreedBytes int64 `json:"freed_bytes"`
	DryRun     bool  `json:"dry_run"`
}

// Archiver uploads a log file somewhere durable before cleanup deletes it.
type Archiver interface {
	Archive(name string, content []byte, modified time.Time) error
}

// Service exposes the log viewer and cleanup operations over one fixed
// directory. Every file access goes through resolve, which rejects names
// escaping the directory.
type Service struct {
	dir      string
	log      *zap.Logger
	archiver Archiver
}

// NewService creates a log service rooted at dir.
func NewService(dir string, log *zap.Logger, archiver Archiver) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{dir: filepath.Clean(dir), log: log, archiver: archiver}
}

// Dir returns the directory the service operates on.
func (s *Service) Dir() string { return s.dir }

// List returns every log file, newest first.
func (s *Service) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	now := time.Now()
	files := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".log") {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     ent.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			AgeHours: now.Sub(info.ModTime()).Hours(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Tail returns the last n lines of the named file. n is capped at
// DefaultTailLines; non-positive n means the full cap.
func (s *Service) Tail(name string, n int) ([]string, error) {
	if n <= 0 || n > DefaultTailLines {
		n = DefaultTailLines
	}

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Delete removes a single log file.
func (s *Service) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete log file: %w", err)
	}
	return nil
}

// Cleanup deletes files older than maxAge, archiving first when an archiver
// is configured. Single-file failures skip that file and continue.
func (s *Service) Cleanup(maxAge time.Duration, dryRun bool) (*CleanupReport, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}

	report := &CleanupReport{DryRun: dryRun}
	cutoff := time.Now().Add(-maxAge)

	for _, file := range files {
		report.Scanned++
		if file.Modified.After(cutoff) {
			continue
		}
		if dryRun {
			report.Deleted++
			report.FreedBytes += file.Size
			continue
		}

		if s.archiver != nil {
			if err := s.archiveFile(file); err != nil {
				s.log.Warn("log archive failed, keeping file",
					zap.String("name", file.Name), zap.Error(err))
				report.Skipped++
				continue
			}
			report.Archived++
		}

		if err := s.Delete(file.Name); err != nil {
			s.log.Warn("log delete failed", zap.String("name", file.Name), zap.Error(err))
			report.Skipped++
			continue
		}
		report.Deleted++
		report.FreedBytes += file.Size
	}
	return report, nil
}

func (s *Service) archiveFile(file FileInfo) error {
	path, err := s.resolve(file.Name)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read for archive: %w", err)
	}
	return s.archiver.Archive(file.Name, content, file.Modified)
}

// resolve validates that name stays a bare filename inside the log
// directory.
func (s *Service) resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return "", ErrOutsideLogDir
	}

	path := filepath.Clean(filepath.Join(s.dir, name))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideLogDir
	}
	return path, nil
}
