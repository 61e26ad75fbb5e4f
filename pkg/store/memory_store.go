package store

import (
	"sort"
	"strings"
	"sync"

	"unishelf/pkg/domain"
)

// MemoryStore keeps everything in-process. Handler tests use it in place of
// the database; it enforces the same (student, textbook) uniqueness the
// composite index provides.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	email     map[string]string // email -> user ID
	textbooks map[string]domain.Textbook
	purchases map[string]domain.Purchase
	pairs     map[string]string // studentID|textbookID -> purchase ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		textbooks: make(map[string]domain.Textbook),
		purchases: make(map[string]domain.Purchase),
		pairs:     make(map[string]string),
	}
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users ordered by creation time.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// SaveTextbook stores or replaces a textbook.
func (m *MemoryStore) SaveTextbook(t domain.Textbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textbooks[t.ID] = t
	return nil
}

// ListTextbooks returns matching records newest first.
func (m *MemoryStore) ListTextbooks(filter TextbookFilter) ([]domain.Textbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Textbook, 0, len(m.textbooks))
	for _, t := range m.textbooks {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.LecturerID != "" && t.LecturerID != filter.LecturerID {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(t.Title), needle) &&
				!strings.Contains(strings.ToLower(t.Author), needle) {
				continue
			}
		}
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// GetTextbook retrieves a textbook by ID.
func (m *MemoryStore) GetTextbook(id string) (domain.Textbook, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.textbooks[id]
	return t, ok, nil
}

// DeleteTextbook removes a textbook record.
func (m *MemoryStore) DeleteTextbook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.textbooks, id)
	return nil
}

// AppendPurchase inserts a ledger entry, enforcing pair uniqueness.
func (m *MemoryStore) AppendPurchase(p domain.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair := p.StudentID + "|" + p.TextbookID
	if _, exists := m.pairs[pair]; exists {
		return ErrDuplicatePurchase
	}
	m.purchases[p.ID] = p
	m.pairs[pair] = p.ID
	return nil
}

// GetPurchase retrieves a purchase by ID.
func (m *MemoryStore) GetPurchase(id string) (domain.Purchase, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	return p, ok, nil
}

// GetPurchaseByPair retrieves the entry for (student, textbook), if any.
func (m *MemoryStore) GetPurchaseByPair(studentID, textbookID string) (domain.Purchase, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.pairs[studentID+"|"+textbookID]
	if !ok {
		return domain.Purchase{}, false, nil
	}
	p, ok := m.purchases[id]
	return p, ok, nil
}

// ListPurchases returns the full ledger newest first.
func (m *MemoryStore) ListPurchases() ([]domain.Purchase, error) {
	return m.listPurchases(func(domain.Purchase) bool { return true })
}

// ListPurchasesByStudent returns a student's purchases newest first.
func (m *MemoryStore) ListPurchasesByStudent(studentID string) ([]domain.Purchase, error) {
	return m.listPurchases(func(p domain.Purchase) bool { return p.StudentID == studentID })
}

// ListPurchasesByTextbook returns purchases of one textbook newest first.
func (m *MemoryStore) ListPurchasesByTextbook(textbookID string) ([]domain.Purchase, error) {
	return m.listPurchases(func(p domain.Purchase) bool { return p.TextbookID == textbookID })
}

// ListPurchasesByTextbookIDs returns purchases across a set of textbooks.
func (m *MemoryStore) ListPurchasesByTextbookIDs(textbookIDs []string) ([]domain.Purchase, error) {
	wanted := make(map[string]struct{}, len(textbookIDs))
	for _, id := range textbookIDs {
		wanted[id] = struct{}{}
	}
	return m.listPurchases(func(p domain.Purchase) bool {
		_, ok := wanted[p.TextbookID]
		return ok
	})
}

func (m *MemoryStore) listPurchases(keep func(domain.Purchase) bool) ([]domain.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Purchase, 0, len(m.purchases))
	for _, p := range m.purchases {
		if keep(p) {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}
