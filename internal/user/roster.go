package user

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

// RosterEntry is one user in the roster file. Absent optional fields leave
// the stored value alone on update.
type RosterEntry struct {
	Username   string     `yaml:"username"`
	Name       string     `yaml:"name"`
	Role       Role       `yaml:"role"`
	Department string     `yaml:"department"`
	Position   string     `yaml:"position"`
	WorkStatus WorkStatus `yaml:"work_status"`
	Active     *bool      `yaml:"active"`
}

type Roster struct {
	Users []RosterEntry `yaml:"users"`
}

func LoadRoster(path string) (*Roster, [sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	return &r, sha256.Sum256(data), nil
}

type RosterResult struct {
	Created int
	Updated int
	Skipped int
}

// ApplyRoster upserts every entry by username. Users missing from the
// roster are left untouched; the roster never deletes.
func (s *Service) ApplyRoster(ctx context.Context, r *Roster) (RosterResult, error) {
	var res RosterResult
	for _, e := range r.Users {
		if e.Role == "" {
			e.Role = RoleUser
		}
		existing, err := s.repo.FindByUsername(ctx, e.Username)
		switch {
		case cerr.IsCode(err, cerr.NotFound):
			u, err := s.Create(ctx, lifecycle.System, CreateInput{
				Username:   e.Username,
				Name:       e.Name,
				Role:       e.Role,
				Department: e.Department,
				Position:   e.Position,
				WorkStatus: e.WorkStatus,
			})
			if err != nil {
				slog.WarnContext(ctx, "roster: skipping user", "username", e.Username, "error", err)
				res.Skipped++
				continue
			}
			if e.Active != nil && !*e.Active {
				if _, err := s.SetActive(ctx, lifecycle.System, u.ID, false, 0); err != nil {
					return res, err
				}
			}
			res.Created++
		case err != nil:
			return res, err
		default:
			changed, err := s.applyEntry(ctx, existing, e)
			if err != nil {
				slog.WarnContext(ctx, "roster: skipping user", "username", e.Username, "error", err)
				res.Skipped++
				continue
			}
			if changed {
				res.Updated++
			}
		}
	}
	return res, nil
}

func (s *Service) applyEntry(ctx context.Context, u *User, e RosterEntry) (bool, error) {
	var in UpdateInput
	if e.Name != "" && e.Name != u.Name {
		in.Name = &e.Name
	}
	if e.Role != u.Role {
		in.Role = &e.Role
	}
	if e.Department != "" && e.Department != u.Department {
		in.Department = &e.Department
	}
	if e.Position != "" && e.Position != u.Position {
		in.Position = &e.Position
	}
	if e.WorkStatus != "" && e.WorkStatus != u.WorkStatus {
		in.WorkStatus = &e.WorkStatus
	}
	changed := false
	if in != (UpdateInput{}) {
		if _, err := s.Update(ctx, lifecycle.System, u.ID, in); err != nil {
			return false, err
		}
		changed = true
	}
	if e.Active != nil && *e.Active != u.IsActive {
		if _, err := s.SetActive(ctx, lifecycle.System, u.ID, *e.Active, 0); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// RosterDebounce is how long the watcher waits after a file event before
// re-reading the roster.
const RosterDebounce = 250 * time.Millisecond

// RosterWatcher applies the roster at start and again whenever the file's
// content changes.
type RosterWatcher struct {
	path     string
	service  *Service
	lastHash [sha256.Size]byte
	applied  chan RosterResult
}

func NewRosterWatcher(path string, service *Service) *RosterWatcher {
	return &RosterWatcher{path: path, service: service, applied: make(chan RosterResult, 1)}
}

// Applied receives the result of each reload. Sends never block, so a
// result is dropped while an earlier one is still unread.
func (w *RosterWatcher) Applied() <-chan RosterResult {
	return w.applied
}

func (w *RosterWatcher) reload(ctx context.Context) {
	r, hash, err := LoadRoster(w.path)
	if err != nil {
		slog.ErrorContext(ctx, "roster: load failed", "path", w.path, "error", err)
		return
	}
	if hash == w.lastHash {
		return
	}
	res, err := w.service.ApplyRoster(ctx, r)
	if err != nil {
		slog.ErrorContext(ctx, "roster: apply failed", "path", w.path, "error", err)
		return
	}
	w.lastHash = hash
	slog.InfoContext(ctx, "roster applied", "path", w.path, "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	select {
	case w.applied <- res:
	default:
	}
}

// Run blocks until ctx is done.
func (w *RosterWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create roster watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file by rename are
	// still seen.
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.reload(ctx)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(RosterDebounce)
		case <-debounce:
			debounce = nil
			w.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "roster: watch error", "error", err)
		}
	}
}
