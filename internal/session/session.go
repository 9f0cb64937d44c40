// Package session holds the per-user editing state: the image currently on
// display, the gallery of alternatives, prompt history and the queue of
// unverified result URLs. State is transient and lives in an in-process TTL
// cache; an expired session simply starts over.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const defaultTTL = 60 * time.Minute

// State is the mutable editing state of one session. All methods are safe
// for concurrent use; the poller and request handlers touch the same state.
type State struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	editedImage    string
	gallery        []string
	pendingURLs    []string
	originalPrompt string
	enhancedPrompt string

	// version counts result writes. A polling sweep snapshots it and its
	// outcome is discarded when a newer write landed in between, so a slow
	// background sweep can never clobber a fresher result.
	version uint64
}

// Snapshot is the JSON view of a session returned by the API.
type Snapshot struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	EditedImage    string    `json:"edited_image,omitempty"`
	Gallery        []string  `json:"gallery,omitempty"`
	PendingURLs    []string  `json:"pending_urls,omitempty"`
	OriginalPrompt string    `json:"original_prompt,omitempty"`
	EnhancedPrompt string    `json:"enhanced_prompt,omitempty"`
}

// ID returns the immutable session identifier.
func (s *State) ID() string {
	return s.id
}

// Snapshot returns a consistent copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:             s.id,
		CreatedAt:      s.createdAt,
		EditedImage:    s.editedImage,
		Gallery:        copyStrings(s.gallery),
		PendingURLs:    copyStrings(s.pendingURLs),
		OriginalPrompt: s.originalPrompt,
		EnhancedPrompt: s.enhancedPrompt,
	}
}

// SetEditedImage sets the image on display and clears the pending queue:
// once something final is shown there is nothing left to wait for.
func (s *State) SetEditedImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.editedImage = url
	s.pendingURLs = nil
}

// EditedImage returns the URL currently on display, if any.
func (s *State) EditedImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editedImage
}

// SetGallery replaces the gallery of alternative results.
func (s *State) SetGallery(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.gallery = copyStrings(urls)
}

// Gallery returns a copy of the gallery.
func (s *State) Gallery() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStrings(s.gallery)
}

// SetPending replaces the queue of unverified result URLs.
func (s *State) SetPending(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.pendingURLs = copyStrings(urls)
}

// PendingSnapshot returns the unverified queue together with the version it
// was read at, for handing to ResolvePending after a sweep.
func (s *State) PendingSnapshot() ([]string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStrings(s.pendingURLs), s.version
}

// PendingURLs returns a copy of the unverified queue.
func (s *State) PendingURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStrings(s.pendingURLs)
}

// HasPending reports whether any unverified URLs remain.
func (s *State) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingURLs) > 0
}

// ResolvePending applies the outcome of one polling sweep taken at the given
// version: ready URLs are promoted to the display slot and gallery, the rest
// stay queued. The first ready URL becomes the edited image; when several
// resolved at once the full ready set also becomes the gallery. A sweep that
// raced a newer write is discarded and reports false.
func (s *State) ResolvePending(version uint64, ready, still []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return false
	}
	s.version++
	s.pendingURLs = copyStrings(still)
	if len(ready) == 0 {
		return true
	}
	s.editedImage = ready[0]
	if len(ready) > 1 {
		s.gallery = copyStrings(ready)
	}
	return true
}

// RecordPrompt stores a new original prompt. A fresh prompt invalidates any
// previous enhancement of it.
func (s *State) RecordPrompt(original string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if original == s.originalPrompt {
		return
	}
	s.originalPrompt = original
	s.enhancedPrompt = ""
}

// RecordEnhancedPrompt stores the enhanced variant of the current prompt.
func (s *State) RecordEnhancedPrompt(enhanced string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enhancedPrompt = enhanced
}

// Prompts returns the original and enhanced prompt.
func (s *State) Prompts() (original, enhanced string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originalPrompt, s.enhancedPrompt
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Manager creates and looks up sessions in a TTL cache. Sessions that go
// quiet long enough are evicted together with whatever pending URLs never
// resolved.
type Manager struct {
	ttl   time.Duration
	cache *gocache.Cache
}

// NewManager builds a manager whose sessions expire after ttl of inactivity.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		ttl:   ttl,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Create registers a new empty session.
func (m *Manager) Create() *State {
	st := &State{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
	}
	m.cache.SetDefault(st.id, st)
	return st
}

// Get returns the session with the given id and refreshes its TTL.
func (m *Manager) Get(id string) (*State, bool) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, false
	}
	st := v.(*State)
	m.cache.SetDefault(id, st)
	return st, true
}

// Delete removes a session immediately.
func (m *Manager) Delete(id string) {
	m.cache.Delete(id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.cache.ItemCount()
}
