package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/pkg/board"
)

// Key identifies one lookup instance: the column id of a relational field, or
// MainPickerKey for the record picker that selects the item being edited.
type Key string

// MainPickerKey is the reserved key for the main record picker.
const MainPickerKey Key = "__main__"

// Phase tracks where a lookup sits in its lifecycle. Searching is reachable
// only from Loaded.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseOpening   Phase = "opening"
	PhaseLoaded    Phase = "loaded"
	PhaseSearching Phase = "searching"
)

// Kind selects the candidate source for a lookup.
type Kind string

const (
	// KindRecords searches one or more record collections.
	KindRecords Kind = "records"
	// KindUsers searches the user directory.
	KindUsers Kind = "users"
)

// FieldConfig describes how one lookup behaves.
type FieldConfig struct {
	Kind Kind

	// Targets lists the record collections a records lookup fans out to.
	// Cross-record fields may be bound to several collections at once.
	Targets []string

	// MultiSelect keeps the lookup open after a selection and toggles
	// membership instead of replacing it.
	MultiSelect bool
}

// State is a point-in-time snapshot of one lookup.
type State struct {
	Phase      Phase
	Query      string
	Candidates []board.RecordSummary
	Selected   []board.RecordSummary

	// Error carries the human-readable cause of the last failed fetch. A
	// failed fetch still lands in Loaded with an empty candidate list; there
	// is no automatic retry.
	Error string
}

const (
	defaultPageLimit  = 50
	defaultEmptyDelay = 150 * time.Millisecond
	defaultQueryDelay = 400 * time.Millisecond
)

// Option configures a Session.
type Option func(*Session)

// WithPageLimit caps the unfiltered candidate fetch.
func WithPageLimit(limit int) Option {
	return func(s *Session) {
		if limit > 0 {
			s.pageLimit = limit
		}
	}
}

// WithDebounce overrides the debounce windows. The empty-query window is
// deliberately shorter than the populated-query one so clearing a search box
// feels immediate.
func WithDebounce(empty, query time.Duration) Option {
	return func(s *Session) {
		if empty > 0 {
			s.emptyDelay = empty
		}
		if query > 0 {
			s.queryDelay = query
		}
	}
}

// WithLogger injects a logger for fetch failures; defaults to discard.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session owns every lookup of one open form: the per-field state map, the
// per-field debounce timer slot, and the single active key. All methods are
// safe for concurrent use; fetches run in goroutines and their responses are
// applied only when they are still the latest issued for their field.
type Session struct {
	mu sync.Mutex

	records   board.RecordSource
	directory board.Directory

	configs map[Key]FieldConfig
	states  map[Key]*State
	timers  map[Key]*time.Timer
	seq     map[Key]uint64
	active  Key

	pageLimit  int
	emptyDelay time.Duration
	queryDelay time.Duration
	log        *logrus.Logger
}

// NewSession builds a Session. The directory may be nil when no people
// lookups will be opened.
func NewSession(records board.RecordSource, directory board.Directory, options ...Option) (*Session, error) {
	if records == nil {
		return nil, errors.New("lookup: record source is required")
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Session{
		records:    records,
		directory:  directory,
		configs:    make(map[Key]FieldConfig),
		states:     make(map[Key]*State),
		timers:     make(map[Key]*time.Timer),
		seq:        make(map[Key]uint64),
		pageLimit:  defaultPageLimit,
		emptyDelay: defaultEmptyDelay,
		queryDelay: defaultQueryDelay,
		log:        discard,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Open activates the lookup for key, closing every other lookup first, and
// kicks off the unfiltered candidate fetch. Reopening a closed lookup
// re-fetches; prior selections are preserved.
func (s *Session) Open(ctx context.Context, key Key, cfg FieldConfig) {
	s.mu.Lock()
	// Exclusivity: exactly one lookup may be open across the whole form.
	// Closing the others synchronously, before the fetch is issued, keeps two
	// pickers from racing to claim the open slot.
	s.closeAllLocked()

	s.configs[key] = cfg
	state := s.stateLocked(key)
	state.Phase = PhaseOpening
	state.Query = ""
	state.Error = ""
	s.active = key
	seq := s.nextSeqLocked(key)
	s.mu.Unlock()

	go s.fetch(ctx, key, cfg, "", seq)
}

// Close marks the lookup for key closed and abandons any pending debounce.
// In-flight fetches are not cancelled; their responses are dropped on arrival
// because their sequence number is no longer current for a closed key.
func (s *Session) Close(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(key)
	if s.active == key {
		s.active = ""
	}
}

// CloseAll abandons every open lookup; used when the form switches between
// create and update modes or the edited record changes.
func (s *Session) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeAllLocked()
}

// Active reports which lookup currently owns the open UI slot, or "".
func (s *Session) Active() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Search re-arms the debounce timer for key with the given term. A fresh
// keystroke replaces any pending timer for the same key, so at most one timer
// per key exists. Searching a closed lookup is a no-op.
func (s *Session) Search(ctx context.Context, key Key, term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	if !ok || s.active != key || state.Phase == PhaseClosed {
		return
	}
	state.Query = term

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	delay := s.queryDelay
	if strings.TrimSpace(term) == "" {
		delay = s.emptyDelay
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(ctx, key, term)
	})
}

// Toggle flips candidate membership in the field's selected list. Single
// select lookups replace the selection and close; multi-select lookups stay
// open. The return value reports whether the lookup closed.
func (s *Session) Toggle(key Key, candidate board.RecordSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.configs[key]
	state := s.stateLocked(key)

	if !cfg.MultiSelect {
		state.Selected = []board.RecordSummary{candidate}
		s.closeLocked(key)
		if s.active == key {
			s.active = ""
		}
		return true
	}

	for i, selected := range state.Selected {
		if selected.ID == candidate.ID && selected.OriginBoardID == candidate.OriginBoardID {
			state.Selected = append(state.Selected[:i], state.Selected[i+1:]...)
			return false
		}
	}
	state.Selected = append(state.Selected, candidate)
	return false
}

// Selected returns a copy of the field's current selections.
func (s *Session) Selected(key Key) []board.RecordSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[key]
	if !ok {
		return nil
	}
	out := make([]board.RecordSummary, len(state.Selected))
	copy(out, state.Selected)
	return out
}

// StateOf returns a snapshot of the lookup state for key.
func (s *Session) StateOf(key Key) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[key]
	if !ok {
		return State{Phase: PhaseClosed}
	}
	snapshot := *state
	snapshot.Candidates = append([]board.RecordSummary(nil), state.Candidates...)
	snapshot.Selected = append([]board.RecordSummary(nil), state.Selected...)
	return snapshot
}

func (s *Session) stateLocked(key Key) *State {
	state, ok := s.states[key]
	if !ok {
		state = &State{Phase: PhaseClosed}
		s.states[key] = state
	}
	return state
}

func (s *Session) closeLocked(key Key) {
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
	if state, ok := s.states[key]; ok {
		state.Phase = PhaseClosed
	}
	// Invalidate any in-flight response for this key.
	s.seq[key]++
}

func (s *Session) closeAllLocked() {
	for key := range s.states {
		s.closeLocked(key)
	}
	s.active = ""
}

func (s *Session) nextSeqLocked(key Key) uint64 {
	s.seq[key]++
	return s.seq[key]
}

// fire runs when a debounce timer expires: it claims a fresh sequence number
// and issues the fetch, unless the lookup was abandoned in the meantime.
// Searching is only reachable once the initial load has landed; a timer
// expiring while the lookup is still Opening is dropped.
func (s *Session) fire(ctx context.Context, key Key, term string) {
	s.mu.Lock()
	state, ok := s.states[key]
	if !ok || s.active != key || (state.Phase != PhaseLoaded && state.Phase != PhaseSearching) {
		s.mu.Unlock()
		return
	}
	state.Phase = PhaseSearching
	cfg := s.configs[key]
	seq := s.nextSeqLocked(key)
	s.mu.Unlock()

	s.fetch(ctx, key, cfg, term, seq)
}

// fetch loads candidates and applies them if seq is still the latest issued
// for the key. Fetches themselves are not cancelable once issued; the
// sequence check is what keeps a slow early response from overwriting a
// fresher one.
func (s *Session) fetch(ctx context.Context, key Key, cfg FieldConfig, term string, seq uint64) {
	candidates, warning, fetchErr := s.load(ctx, cfg, term)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq[key] != seq {
		s.log.WithFields(logrus.Fields{"key": key, "seq": seq}).Debug("lookup: stale response dropped")
		return
	}
	state, ok := s.states[key]
	if !ok || s.active != key || state.Phase == PhaseClosed {
		return
	}

	state.Phase = PhaseLoaded
	if fetchErr != nil {
		state.Candidates = nil
		state.Error = fetchErr.Error()
		s.log.WithFields(logrus.Fields{"key": key}).WithError(fetchErr).Warn("lookup: fetch failed")
		return
	}
	state.Candidates = candidates
	state.Error = warning
}

func (s *Session) load(ctx context.Context, cfg FieldConfig, term string) ([]board.RecordSummary, string, error) {
	switch cfg.Kind {
	case KindUsers:
		candidates, err := s.loadUsers(ctx, term)
		return candidates, "", err
	default:
		return s.loadRecords(ctx, cfg.Targets, term)
	}
}

func (s *Session) loadUsers(ctx context.Context, term string) ([]board.RecordSummary, error) {
	if s.directory == nil {
		return nil, errors.New("lookup: user directory is not configured")
	}

	var (
		users []board.User
		err   error
	)
	if strings.TrimSpace(term) == "" {
		users, err = s.directory.ListUsers(ctx)
	} else {
		users, err = s.directory.SearchUsers(ctx, term)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: fetch users: %w", err)
	}

	out := make([]board.RecordSummary, 0, len(users))
	for _, user := range users {
		out = append(out, board.RecordSummary{ID: user.ID, Name: user.Name})
	}
	return out, nil
}

// loadRecords fans out one fetch per target collection in parallel and merges
// the results tagged with their origin. Partial success is reported as
// success plus a warning naming the failed targets.
func (s *Session) loadRecords(ctx context.Context, targets []string, term string) ([]board.RecordSummary, string, error) {
	if len(targets) == 0 {
		return nil, "", errors.New("lookup: no target collections configured")
	}

	type result struct {
		records []board.RecordSummary
		err     error
	}

	results := make([]result, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			records, err := s.records.ListRecords(ctx, target, board.ListOptions{
				Limit:      s.pageLimit,
				NameFilter: term,
			})
			if err != nil {
				results[i] = result{err: fmt.Errorf("collection %s: %w", target, err)}
				return
			}
			for j := range records {
				if records[j].OriginBoardID == "" {
					records[j].OriginBoardID = target
				}
			}
			results[i] = result{records: records}
		}(i, target)
	}
	wg.Wait()

	var merged []board.RecordSummary
	var failures []string
	for _, res := range results {
		if res.err != nil {
			failures = append(failures, res.err.Error())
			continue
		}
		merged = append(merged, res.records...)
	}

	if len(failures) == len(targets) {
		return nil, "", fmt.Errorf("lookup: all targets failed: %s", strings.Join(failures, "; "))
	}
	if len(failures) > 0 {
		// Partial success: what loaded is usable, the failure detail rides along.
		return merged, "some targets failed: " + strings.Join(failures, "; "), nil
	}
	return merged, "", nil
}
