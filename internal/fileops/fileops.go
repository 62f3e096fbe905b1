package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dooshek/honey/internal/logger"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrProcessAlreadyRunning is returned when another honey process holds the PID file
var ErrProcessAlreadyRunning = errors.New("honey process is already running")

const (
	DatabaseFilename = "db.json"
	BoltFilename     = "honey.db"
	TextsFilename    = "texts.json"
)

// FileOps interface defines operations on the honey config and data directories
type FileOps interface {
	// GetConfigDir returns the full path to the honey config directory
	GetConfigDir() string

	// GetDataDir returns the directory holding the record store and text archive
	GetDataDir() string

	// GetAudioDir returns the directory used by the local audio store
	GetAudioDir() string

	// SaveConfig saves data to a file in the config directory
	SaveConfig(filename string, data []byte) error

	// LoadConfig loads data from a file in the config directory
	LoadConfig(filename string) ([]byte, error)

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error

	// SavePID saves the current process ID to a file
	SavePID() error

	// CheckPID returns ErrProcessAlreadyRunning if another instance is running
	CheckPID() error

	// CleanupPID removes the PID file
	CleanupPID() error
}

// DefaultFileOps implements FileOps interface
type DefaultFileOps struct {
	configDir string
	dataDir   string
}

// NewDefaultFileOps returns FileOps rooted at ~/.config/honey
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewFileOps(filepath.Join(homeDir, ".config", "honey")), nil
}

// NewFileOps returns FileOps rooted at configDir with data under configDir/data
func NewFileOps(configDir string) *DefaultFileOps {
	return &DefaultFileOps{
		configDir: configDir,
		dataDir:   filepath.Join(configDir, "data"),
	}
}

// WithDataDir overrides the data directory; "~/" is expanded against the home directory.
// An empty dir keeps the current one.
func (f *DefaultFileOps) WithDataDir(dir string) *DefaultFileOps {
	if dir == "" {
		return f
	}
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	f.dataDir = dir
	return f
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) GetDataDir() string {
	return f.dataDir
}

func (f *DefaultFileOps) GetAudioDir() string {
	return filepath.Join(f.dataDir, "audio")
}

// DatabasePath returns the record store path for the given store backend
func (f *DefaultFileOps) DatabasePath(backend string) string {
	if backend == "bolt" {
		return filepath.Join(f.dataDir, BoltFilename)
	}
	return filepath.Join(f.dataDir, DatabaseFilename)
}

func (f *DefaultFileOps) TextsPath() string {
	return filepath.Join(f.dataDir, TextsFilename)
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	path := filepath.Join(f.configDir, filename)
	return os.WriteFile(path, data, 0o600)
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	return os.ReadFile(path)
}

func (f *DefaultFileOps) EnsureDirectories() error {
	for _, dir := range []string{f.configDir, f.dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (f *DefaultFileOps) getPIDFilePath() string {
	return filepath.Join(f.configDir, "honey.pid")
}

func (f *DefaultFileOps) SavePID() error {
	return os.WriteFile(f.getPIDFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (f *DefaultFileOps) CheckPID() error {
	data, err := os.ReadFile(f.getPIDFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid == os.Getpid() {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	// Signal 0 probes for existence without delivering anything
	if err := process.Signal(syscall.Signal(0)); err == nil {
		return ErrProcessAlreadyRunning
	}

	logger.Debug("Found stale PID file, will be overwritten")
	return nil
}

func (f *DefaultFileOps) CleanupPID() error {
	return os.Remove(f.getPIDFilePath())
}
