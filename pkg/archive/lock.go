package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLockDirName   = ".run.lock"
	runLockOwnerFile = "owner.json"
)

// RunLock guards an archive directory against concurrent runs. Acquisition
// relies on mkdir being atomic; the owner file exists for the error message
// a second invocation prints, not for correctness.
type RunLock struct {
	lockDir string
}

type runLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireRunLock takes the exclusive run lock for an archive directory.
// It fails if another process already holds it.
func AcquireRunLock(archiveDir string) (RunLock, error) {
	target := strings.TrimSpace(archiveDir)
	if target == "" {
		return RunLock{}, fmt.Errorf("archive directory is required")
	}
	// #nosec G301
	if err := os.MkdirAll(target, 0755); err != nil {
		return RunLock{}, fmt.Errorf("create archive directory %s: %w", target, err)
	}

	lockDir := filepath.Join(target, runLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, runLockOwnerFile)
			var owner runLockOwner
			if b, readErr := os.ReadFile(ownerPath); readErr == nil {
				if json.Unmarshal(b, &owner) == nil && owner.PID > 0 {
					return RunLock{}, fmt.Errorf(
						"archive is locked by another run: %s (pid=%d created_at=%s host=%s)",
						target, owner.PID, owner.CreatedAt, owner.Hostname,
					)
				}
			}
			return RunLock{}, fmt.Errorf("archive is locked by another run: %s", target)
		}
		return RunLock{}, fmt.Errorf("acquire run lock for %s: %w", target, err)
	}

	owner := runLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	b, err := json.MarshalIndent(owner, "", "  ")
	if err != nil {
		_ = os.Remove(lockDir)
		return RunLock{}, fmt.Errorf("encode run lock owner: %w", err)
	}
	ownerPath := filepath.Join(lockDir, runLockOwnerFile)
	// #nosec G306
	if err := os.WriteFile(ownerPath, b, 0644); err != nil {
		_ = os.Remove(lockDir)
		return RunLock{}, fmt.Errorf("write run lock owner for %s: %w", target, err)
	}

	return RunLock{lockDir: lockDir}, nil
}

// Release removes the lock. Safe to call on a zero-value lock.
func (l RunLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, runLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release run lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
