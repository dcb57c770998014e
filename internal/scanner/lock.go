package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrLockConflict reports that another scan already owns the catalog.
var ErrLockConflict = errors.New("scan already in progress")

// LockInfo is written into the lock file by the holder.
type LockInfo struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

type fileLock struct {
	path string
	lock *flock.Flock
}

// acquireFileLock takes the cross-process scan lock at path. A held lock is
// reclaimed only when its recorded holder is no longer running and its start
// time is older than staleAfter; the lock file is then unlinked and the lock
// retried once on a fresh file. A live holder always wins, however long its
// scan runs.
func acquireFileLock(path string, staleAfter time.Duration, now time.Time) (*fileLock, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire scan lock: %w", err)
	}
	reclaimed := false
	if !ok {
		info, readErr := ReadLockInfo(path)
		if readErr != nil || !abandoned(info, staleAfter, now) {
			return nil, false, ErrLockConflict
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("remove stale scan lock: %w", err)
		}
		lock = flock.New(path)
		ok, err = lock.TryLock()
		if err != nil {
			return nil, false, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			return nil, false, ErrLockConflict
		}
		reclaimed = true
	}

	if err := WriteLockInfo(path, LockInfo{PID: os.Getpid(), StartedAt: now.UTC()}); err != nil {
		_ = lock.Unlock()
		return nil, false, fmt.Errorf("record scan lock: %w", err)
	}
	return &fileLock{path: path, lock: lock}, reclaimed, nil
}

// abandoned reports whether a held lock's recorded holder is gone.
func abandoned(info LockInfo, staleAfter time.Duration, now time.Time) bool {
	if staleAfter <= 0 || now.Sub(info.StartedAt) < staleAfter {
		return false
	}
	if info.PID <= 0 || info.PID == os.Getpid() {
		return false
	}
	return !processAlive(info.PID)
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// release clears the holder details and drops the lock. An empty lock file
// never reads as a holder.
func (l *fileLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := os.Truncate(l.path, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = l.lock.Unlock()
		return fmt.Errorf("clear scan lock: %w", err)
	}
	return l.lock.Unlock()
}

// ReadLockInfo decodes the holder details recorded in a scan lock file.
func ReadLockInfo(path string) (LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LockInfo{}, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}, fmt.Errorf("decode scan lock: %w", err)
	}
	return info, nil
}

// WriteLockInfo records holder details in place. The file is rewritten
// rather than replaced so the inode carrying the flock stays the same.
func WriteLockInfo(path string, info LockInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
