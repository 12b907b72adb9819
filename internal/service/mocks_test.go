package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/storage"
)

// mockUserRepo is an in-memory UserRepository for tests.
type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	// failWith, when set, is returned by every method.
	failWith error

	// duplicateRows simulates an integrity fault on GetByUsername.
	duplicateRows bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.users[user.Username]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateUsername, user.Username)
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	if m.duplicateRows {
		return nil, fmt.Errorf("%w: duplicate username %q", domain.ErrIntegrityFault, username)
	}
	user, exists := m.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return false, m.failWith
	}
	_, exists := m.users[username]
	return exists, nil
}

func (m *mockUserRepo) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return &repository.ListResult[domain.User]{
		Items:  users,
		Total:  int64(len(users)),
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.users[username]; !exists {
		return domain.ErrUserNotFound
	}
	delete(m.users, username)
	return nil
}

// mockNoteRepo is an in-memory NoteRepository for tests.
type mockNoteRepo struct {
	mu     sync.Mutex
	notes  map[int64]*domain.Note
	nextID int64

	failWith error
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[int64]*domain.Note), nextID: 1}
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	note.ID = m.nextID
	m.nextID++
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *mockNoteRepo) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	note, exists := m.notes[id]
	if !exists {
		return nil, domain.ErrNoteNotFound
	}
	copied := *note
	return &copied, nil
}

func (m *mockNoteRepo) ListByOwner(ctx context.Context, ownerUsername string) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var notes []*domain.Note
	for _, n := range m.notes {
		if n.OwnerUsername == ownerUsername {
			copied := *n
			notes = append(notes, &copied)
		}
	}
	return notes, nil
}

func (m *mockNoteRepo) Update(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.notes[note.ID]; !exists {
		return domain.ErrNoteNotFound
	}
	note.UpdatedAt = time.Now().UTC()
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.notes[id]; !exists {
		return domain.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *mockNoteRepo) DeleteAllByOwner(ctx context.Context, ownerUsername string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	var count int64
	for id, n := range m.notes {
		if n.OwnerUsername == ownerUsername {
			delete(m.notes, id)
			count++
		}
	}
	return count, nil
}

// mockAttachmentRepo is an in-memory AttachmentRepository for tests.
type mockAttachmentRepo struct {
	mu          sync.Mutex
	attachments map[int64]*domain.Attachment
	nextID      int64

	failWith error
}

func newMockAttachmentRepo() *mockAttachmentRepo {
	return &mockAttachmentRepo{attachments: make(map[int64]*domain.Attachment), nextID: 1}
}

func (m *mockAttachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	att.ID = m.nextID
	m.nextID++
	copied := *att
	m.attachments[att.ID] = &copied
	return nil
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	att, exists := m.attachments[id]
	if !exists {
		return nil, domain.ErrAttachmentNotFound
	}
	copied := *att
	return &copied, nil
}

func (m *mockAttachmentRepo) ListByNote(ctx context.Context, noteID int64) ([]*domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	var atts []*domain.Attachment
	for _, a := range m.attachments {
		if a.NoteID == noteID {
			copied := *a
			atts = append(atts, &copied)
		}
	}
	return atts, nil
}

func (m *mockAttachmentRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.attachments[id]; !exists {
		return domain.ErrAttachmentNotFound
	}
	delete(m.attachments, id)
	return nil
}

func (m *mockAttachmentRepo) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return 0, m.failWith
	}
	var count int64
	for _, a := range m.attachments {
		if a.ContentHash == contentHash {
			count++
		}
	}
	return count, nil
}

// mockBlobStorage is an in-memory BlobStorage for tests.
type mockBlobStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	times map[string]time.Time

	failWith error
}

func newMockBlobStorage() *mockBlobStorage {
	return &mockBlobStorage{
		blobs: make(map[string][]byte),
		times: make(map[string]time.Time),
	}
}

func (m *mockBlobStorage) Store(ctx context.Context, contentHash string, r io.Reader, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[contentHash] = data
	m.times[contentHash] = time.Now()
	return nil
}

func (m *mockBlobStorage) Open(ctx context.Context, contentHash string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	data, exists := m.blobs[contentHash]
	if !exists {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockBlobStorage) Exists(ctx context.Context, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.blobs[contentHash]
	return exists, nil
}

func (m *mockBlobStorage) Delete(ctx context.Context, contentHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return m.failWith
	}
	delete(m.blobs, contentHash)
	delete(m.times, contentHash)
	return nil
}

func (m *mockBlobStorage) List(ctx context.Context, fn func(info storage.BlobInfo) error) error {
	m.mu.Lock()
	infos := make([]storage.BlobInfo, 0, len(m.blobs))
	for hash, data := range m.blobs {
		infos = append(infos, storage.BlobInfo{
			ContentHash: hash,
			Size:        int64(len(data)),
			ModTime:     m.times[hash],
		})
	}
	m.mu.Unlock()

	for _, info := range infos {
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockBlobStorage) setModTime(contentHash string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[contentHash] = t
}

// mockLock is a DistributedLock that always succeeds unless told otherwise.
type mockLock struct {
	mu       sync.Mutex
	held     map[string]bool
	denyNext bool

	acquires int
	releases int
}

func newMockLock() *mockLock {
	return &mockLock{held: make(map[string]bool)}
}

func (m *mockLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acquires++
	if m.denyNext {
		m.denyNext = false
		return false, nil
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockLock) Release(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releases++
	if !m.held[key] {
		return false, nil
	}
	delete(m.held, key)
	return true, nil
}
