// Package store holds the bot's durable state: the subreddit allow-list,
// per-IP request logs, per-submitter approval locks, cached pending checks,
// and the reddit session cookie. State lives in memory and is flushed to a
// JSON backup file whenever it changes in a way worth keeping.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/reddit-tools/modbot/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultRateLimit is the number of completed checks a single requester may
// make per day.
const DefaultRateLimit = 5

// day is the retention window for request logs and approval locks,
// in the unix-millisecond representation the backup file uses.
const day = int64(24 * time.Hour / time.Millisecond)

// PendingCheck is a cached verification record for a spam-filtered post,
// written when classification flags the post and read back at approval time.
// Field names mirror the backup file layout.
type PendingCheck struct {
	Time      int64  `json:"time"`
	Subreddit string `json:"r"`
	PostID    string `json:"id"`
	User      string `json:"user"`
	Modhash   string `json:"uh"`
}

// backup is the serialized form of the whole store.
type backup struct {
	Cookie     string                  `json:"cookie"`
	Subreddits []string                `json:"reddits"`
	IPs        map[string][]int64      `json:"ips"`
	Users      map[string]int64        `json:"users"`
	Checks     map[string]PendingCheck `json:"checks"`
}

// Store owns the in-memory state and its backup file.
type Store struct {
	mu   sync.Mutex
	path string
	data backup
}

// Load deserializes the backup file. A missing or malformed file is a fatal
// startup condition; the caller is expected to abort.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	var data backup
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}

	if data.IPs == nil {
		data.IPs = make(map[string][]int64)
	}
	if data.Users == nil {
		data.Users = make(map[string]int64)
	}
	if data.Checks == nil {
		data.Checks = make(map[string]PendingCheck)
	}
	// HasSubreddit binary-searches, so the list must stay sorted even when
	// the backup file was edited by hand.
	sort.Strings(data.Subreddits)

	log.Info().
		Str("path", path).
		Int("subreddits", len(data.Subreddits)).
		Int("requesters", len(data.IPs)).
		Int("locked_users", len(data.Users)).
		Int("pending_checks", len(data.Checks)).
		Msg("Backup loaded")

	return &Store{path: path, data: data}, nil
}

// persist writes the full store to the backup file. Caller must hold the lock.
func (s *Store) persist() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to serialize backup: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace backup: %w", err)
	}
	return nil
}

// Cookie returns the reddit session credential.
func (s *Store) Cookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Cookie
}

// Subreddits returns a copy of the current allow-list.
func (s *Store) Subreddits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.data.Subreddits))
	copy(out, s.data.Subreddits)
	return out
}

// HasSubreddit reports whether name is in the allow-list.
func (s *Store) HasSubreddit(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.SearchStrings(s.data.Subreddits, name)
	return i < len(s.data.Subreddits) && s.data.Subreddits[i] == name
}

// SetSubreddits atomically replaces the allow-list. The list is kept sorted.
func (s *Store) SetSubreddits(list []string) {
	sorted := make([]string, len(list))
	copy(sorted, list)
	sort.Strings(sorted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Subreddits = sorted
}

// RecordRequest appends a request timestamp for the requester. It records
// only; the rate-limit decision is made beforehand via RateLimited.
func (s *Store) RecordRequest(ip string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.IPs[ip] = append(s.data.IPs[ip], now.UnixMilli())
}

// RateLimited reports whether the requester has used up its daily quota.
// Entries older than a day are already absent thanks to the sweep, so a
// plain length check suffices.
func (s *Store) RateLimited(ip string, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.IPs[ip]) >= limit
}

// IsLocked reports whether the submitter has an active approval lock.
// Presence alone is sufficient; the sweep bounds staleness to one day.
func (s *Store) IsLocked(user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.Users[user]
	return ok
}

// RecordApproval locks the submitter for a day and persists immediately.
func (s *Store) RecordApproval(user string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Users[user] = now.UnixMilli()
	return s.persist()
}

// CachePending stores a verification record for later approval and persists.
// A later check of the same post overwrites the record.
func (s *Store) CachePending(check PendingCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Checks[check.PostID] = check
	return s.persist()
}

// GetPending retrieves a cached verification record. A missing record means
// the post was never flagged or the cache predates a restart.
func (s *Store) GetPending(postID string) (PendingCheck, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	check, ok := s.data.Checks[postID]
	return check, ok
}

// Sweep expires request-log timestamps and approval locks older than one day.
// An entry at exactly one day old is retained. Requesters left with no
// timestamps are removed entirely. If anything was removed the store is
// persisted before returning.
func (s *Store) Sweep(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := now.UnixMilli()
	changed := false

	for ip, times := range s.data.IPs {
		kept := times[:0]
		for _, t := range times {
			if t+day >= cur {
				kept = append(kept, t)
			} else {
				changed = true
				metrics.SweepRemovalsTotal.WithLabelValues("request").Inc()
			}
		}
		if len(kept) == 0 {
			delete(s.data.IPs, ip)
		} else {
			s.data.IPs[ip] = kept
		}
	}

	for user, t := range s.data.Users {
		if t+day < cur {
			changed = true
			delete(s.data.Users, user)
			metrics.SweepRemovalsTotal.WithLabelValues("lock").Inc()
		}
	}

	if !changed {
		return false, nil
	}

	if err := s.persist(); err != nil {
		return true, err
	}
	return true, nil
}

// Stats returns current entry counts for the metrics collector.
func (s *Store) Stats() (requesters, locked, pending, subreddits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.IPs), len(s.data.Users), len(s.data.Checks), len(s.data.Subreddits)
}
