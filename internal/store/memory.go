package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

// Memory is a mutex-guarded in-memory Store. It backs the engine's tests
// and small single-process deployments. All returned slices are copies of
// the stored pointers in deterministic order.
type Memory struct {
	mu           sync.RWMutex
	transactions map[string]*models.InternalTransaction
	sessions     map[string]*models.ReconciliationSession
	items        map[string][]*models.ReconciliationItem // session id -> items
	patterns     map[string]*models.RecurringPattern
	occurrences  map[string][]*models.RecurringOccurrence // pattern id -> occurrences
	linked       map[string]bool                          // transaction id -> linked to occurrence
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string]*models.InternalTransaction),
		sessions:     make(map[string]*models.ReconciliationSession),
		items:        make(map[string][]*models.ReconciliationItem),
		patterns:     make(map[string]*models.RecurringPattern),
		occurrences:  make(map[string][]*models.RecurringOccurrence),
		linked:       make(map[string]bool),
	}
}

// AddTransaction seeds an internal transaction. Assigns an id if missing.
func (m *Memory) AddTransaction(tx *models.InternalTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.transactions[tx.ID] = tx
}

// AddSession seeds a reconciliation session. Assigns an id if missing.
func (m *Memory) AddSession(session *models.ReconciliationSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	m.sessions[session.ID] = session
}

func (m *Memory) InternalTransactionsByDateRange(_ context.Context, userID string, accountID *string, start, end time.Time, excludeReconciled bool) ([]*models.InternalTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.InternalTransaction
	for _, tx := range m.transactions {
		if tx.UserID != userID || tx.IsDeleted {
			continue
		}
		if accountID != nil && tx.AccountID != *accountID {
			continue
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		if excludeReconciled && tx.IsReconciled {
			continue
		}
		out = append(out, tx)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) IsTransactionLinked(_ context.Context, transactionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.linked[transactionID], nil
}

func (m *Memory) Session(_ context.Context, sessionID, userID string) (*models.ReconciliationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, engerrors.NotFound(engerrors.CodeSessionNotFound, "reconciliation session", sessionID)
	}
	return session, nil
}

func (m *Memory) UpdateSession(_ context.Context, session *models.ReconciliationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return engerrors.NotFound(engerrors.CodeSessionNotFound, "reconciliation session", session.ID)
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *Memory) ReplaceItems(_ context.Context, sessionID string, items []*models.ReconciliationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make([]*models.ReconciliationItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		replacement = append(replacement, item)
	}
	m.items[sessionID] = replacement
	return nil
}

func (m *Memory) Items(_ context.Context, sessionID string) ([]*models.ReconciliationItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ReconciliationItem, len(m.items[sessionID]))
	copy(out, m.items[sessionID])
	return out, nil
}

func (m *Memory) ActivePatterns(_ context.Context, userID string) ([]*models.RecurringPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.patternsWhere(func(p *models.RecurringPattern) bool {
		return p.UserID == userID && p.Status == models.PatternActive
	}), nil
}

func (m *Memory) PastDuePatterns(_ context.Context, userID string, asOf time.Time) ([]*models.RecurringPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.patternsWhere(func(p *models.RecurringPattern) bool {
		return p.UserID == userID && p.Status == models.PatternActive && p.IsPastDue(asOf)
	}), nil
}

func (m *Memory) UpcomingPatterns(_ context.Context, userID string, start, end time.Time) ([]*models.RecurringPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.patternsWhere(func(p *models.RecurringPattern) bool {
		return p.UserID == userID && p.Status == models.PatternActive &&
			!p.NextExpectedDate.Before(start) && !p.NextExpectedDate.After(end)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextExpectedDate.Equal(out[j].NextExpectedDate) {
			return out[i].NextExpectedDate.Before(out[j].NextExpectedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// patternsWhere returns matching patterns ordered by id. Callers must hold
// the read lock.
func (m *Memory) patternsWhere(keep func(*models.RecurringPattern) bool) []*models.RecurringPattern {
	var out []*models.RecurringPattern
	for _, p := range m.patterns {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) UpsertPattern(_ context.Context, pattern *models.RecurringPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.patterns {
		if existing.UserID == pattern.UserID && existing.MerchantKey == pattern.MerchantKey {
			pattern.ID = existing.ID
			pattern.CreatedAt = existing.CreatedAt
			m.patterns[existing.ID] = pattern
			return nil
		}
	}

	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = time.Now().UTC()
	}
	m.patterns[pattern.ID] = pattern
	return nil
}

func (m *Memory) UpdatePattern(_ context.Context, pattern *models.RecurringPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patterns[pattern.ID]; !ok {
		return engerrors.NotFound(engerrors.CodePatternNotFound, "recurring pattern", pattern.ID)
	}
	m.patterns[pattern.ID] = pattern
	return nil
}

func (m *Memory) CreateOccurrence(_ context.Context, occurrence *models.RecurringOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if occurrence.ID == "" {
		occurrence.ID = uuid.NewString()
	}
	if occurrence.CreatedAt.IsZero() {
		occurrence.CreatedAt = time.Now().UTC()
	}
	m.occurrences[occurrence.PatternID] = append(m.occurrences[occurrence.PatternID], occurrence)
	if occurrence.TransactionID != nil {
		m.linked[*occurrence.TransactionID] = true
	}
	return nil
}

func (m *Memory) Occurrences(_ context.Context, patternID string) ([]*models.RecurringOccurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.RecurringOccurrence, len(m.occurrences[patternID]))
	copy(out, m.occurrences[patternID])
	sort.Slice(out, func(i, j int) bool { return out[i].ExpectedDate.Before(out[j].ExpectedDate) })
	return out, nil
}
