package changetrack

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"webpeel/internal/model"
)

// Store persists one Snapshot per URL under its directory (NewStore's dir,
// or ${HOME}/.webpeel/snapshots/ when dir is empty) as
// `<sha256(url)>.json`, matching spec §6's snapshot layout. A per-key
// mutex guards read-modify-write so concurrent trackChange calls for the
// same URL serialize instead of racing a torn read, per the §5 note that
// snapshot writers "must either rename-into-place or hold a per-URL
// lock".
type Store struct {
	dir   string
	locks sync.Map // url-hash (string) -> *sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".webpeel", "snapshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func snapshotKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func (s *Store) pathFor(rawURL string) string {
	return filepath.Join(s.dir, snapshotKey(rawURL)+".json")
}

func (s *Store) lockFor(rawURL string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(snapshotKey(rawURL), &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Store) load(rawURL string) (*model.Snapshot, error) {
	data, err := os.ReadFile(s.pathFor(rawURL))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) save(snap *model.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.pathFor(snap.URL) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.pathFor(snap.URL))
}

// Track implements spec §4.8's track(url, content, fingerprint):
// new/same/changed classification, snapshot write, and unified diff on
// change.
func (s *Store) Track(rawURL, content, fingerprint string) (model.ChangeResult, error) {
	lock := s.lockFor(rawURL)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.load(rawURL)
	if err != nil {
		return model.ChangeResult{}, err
	}

	now := time.Now()

	if prior == nil {
		snap := &model.Snapshot{
			URL:         rawURL,
			Fingerprint: fingerprint,
			Content:     content,
			TimestampMs: now.UnixMilli(),
		}
		if err := s.save(snap); err != nil {
			return model.ChangeResult{}, err
		}
		return model.ChangeResult{Status: model.ChangeNew}, nil
	}

	priorTime := time.UnixMilli(prior.TimestampMs)

	if prior.Fingerprint == fingerprint {
		prior.TimestampMs = now.UnixMilli()
		if err := s.save(prior); err != nil {
			return model.ChangeResult{}, err
		}
		return model.ChangeResult{Status: model.ChangeSame, PreviousScrapeAt: &priorTime}, nil
	}

	diff := Diff(prior.Content, content)
	snap := &model.Snapshot{
		URL:         rawURL,
		Fingerprint: fingerprint,
		Content:     content,
		TimestampMs: now.UnixMilli(),
		Metadata: &model.SnapshotMeta{
			PreviousFingerprint: prior.Fingerprint,
			PreviousTimestampMs: prior.TimestampMs,
		},
	}
	if err := s.save(snap); err != nil {
		return model.ChangeResult{}, err
	}

	return model.ChangeResult{
		Status:           model.ChangeChanged,
		PreviousScrapeAt: &priorTime,
		Diff:             &diff,
	}, nil
}

// ClearSnapshots implements spec §4.8's clearSnapshots(urlPattern?): with
// no pattern, deletes every snapshot file; with a pattern, opens each
// snapshot and deletes it only if its URL matches.
func (s *Store) ClearSnapshots(urlPattern string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var re *regexp.Regexp
	if urlPattern != "" {
		re, err = regexp.Compile(urlPattern)
		if err != nil {
			return err
		}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if re == nil {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		if re.MatchString(snap.URL) {
			_ = os.Remove(path)
		}
	}
	return nil
}
