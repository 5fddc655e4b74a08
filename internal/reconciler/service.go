// Package reconciler orchestrates reconciliation sessions: it feeds a
// statement's external transactions through the matching engine, persists
// the outcome as the session's reconciliation items and maintains the
// session's calculated balance and lifecycle.
//
// Re-running a session replaces its items wholesale, so matching the same
// statement twice leaves the session in the same state as matching it once.
package reconciler

import (
	"context"
	"time"

	"github.com/digaomatias/mymascada-sub011/internal/matcher"
	"github.com/digaomatias/mymascada-sub011/internal/models"
	"github.com/digaomatias/mymascada-sub011/internal/store"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
	"github.com/digaomatias/mymascada-sub011/pkg/logger"
)

// Service runs matching against reconciliation sessions.
type Service struct {
	store store.Store
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a reconciliation service.
func NewService(s store.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		store: s,
		log:   log.WithComponent("reconciler"),
		now:   time.Now,
	}
}

// MatchTransactions matches a statement's external transactions against the
// session's window of internal transactions and replaces the session's
// reconciliation items with the outcome. The session must exist and belong
// to the user. A nil config selects the default. Returns the matching
// result; the session's calculated balance is refreshed as a side effect.
func (s *Service) MatchTransactions(ctx context.Context, sessionID, userID string, external []*models.ExternalTransaction, cfg *matcher.MatchConfig) (*matcher.MatchingResult, error) {
	session, err := s.store.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, engerrors.Validation(engerrors.CodeInvalidState, "session status", string(session.Status),
			"only in-progress sessions can run matching")
	}

	for _, ext := range external {
		if err := ext.Validate(); err != nil {
			return nil, engerrors.Validation(engerrors.CodeInvalidInput, "external transaction", ext.Reference, err.Error())
		}
	}

	internal, err := s.store.InternalTransactionsByDateRange(ctx, userID, accountFilter(session),
		session.StatementStartDate, session.StatementEndDate, true)
	if err != nil {
		return nil, engerrors.Storage("load internal transactions", err)
	}

	result, err := matcher.NewEngine(cfg).Match(internal, external)
	if err != nil {
		return nil, err
	}

	items := buildItems(session, result, s.now().UTC())
	if err := s.store.ReplaceItems(ctx, sessionID, items); err != nil {
		return nil, engerrors.Storage("replace reconciliation items", err)
	}

	if err := s.refreshCalculatedBalance(ctx, session); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"session_id":     sessionID,
		"matched":        len(result.Matches),
		"unmatched_app":  result.UnmatchedAppCount,
		"unmatched_bank": result.UnmatchedBankCount,
		"match_pct":      result.OverallMatchPercentage,
	}).Info("matching run completed")
	return result, nil
}

// accountFilter scopes the transaction query to the session's account when
// one is set.
func accountFilter(session *models.ReconciliationSession) *string {
	if session.AccountID == "" {
		return nil
	}
	return &session.AccountID
}

// buildItems converts a matching result into the session's full item set.
func buildItems(session *models.ReconciliationSession, result *matcher.MatchingResult, createdAt time.Time) []*models.ReconciliationItem {
	items := make([]*models.ReconciliationItem, 0,
		len(result.Matches)+len(result.UnmatchedInternal)+len(result.UnmatchedExternal))

	for _, pair := range result.Matches {
		items = append(items, &models.ReconciliationItem{
			SessionID:             session.ID,
			Type:                  models.ItemMatched,
			InternalTransactionID: &pair.Internal.ID,
			Confidence:            pair.Confidence,
			MatchMethod:           string(pair.Method),
			BankReference:         pair.External.Reference,
			BankDescription:       pair.External.Description,
			BankAmount:            pair.External.Amount,
			BankDate:              pair.External.Date,
			CreatedAt:             createdAt,
		})
	}
	for _, tx := range result.UnmatchedInternal {
		items = append(items, &models.ReconciliationItem{
			SessionID:             session.ID,
			Type:                  models.ItemUnmatchedInternal,
			InternalTransactionID: &tx.ID,
			CreatedAt:             createdAt,
		})
	}
	for _, ext := range result.UnmatchedExternal {
		items = append(items, &models.ReconciliationItem{
			SessionID:       session.ID,
			Type:            models.ItemUnmatchedBank,
			BankReference:   ext.Reference,
			BankDescription: ext.Description,
			BankAmount:      ext.Amount,
			BankDate:        ext.Date,
			CreatedAt:       createdAt,
		})
	}
	return items
}

// refreshCalculatedBalance recomputes the session's calculated balance as
// the statement start balance plus every transaction in the statement
// window, reconciled or not, and persists the session.
func (s *Service) refreshCalculatedBalance(ctx context.Context, session *models.ReconciliationSession) error {
	window, err := s.store.InternalTransactionsByDateRange(ctx, session.UserID, accountFilter(session),
		session.StatementStartDate, session.StatementEndDate, false)
	if err != nil {
		return engerrors.Storage("load window transactions", err)
	}

	balance := session.StatementStartBalance
	for _, tx := range window {
		balance = balance.Add(tx.Amount)
	}
	session.CalculatedBalance = balance

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return engerrors.Storage("update session balance", err)
	}
	return nil
}

// CompleteSession marks an in-progress session as completed. The session
// does not need to balance; an unbalanced completion is the user's call.
func (s *Service) CompleteSession(ctx context.Context, sessionID, userID string) (*models.ReconciliationSession, error) {
	return s.transition(ctx, sessionID, userID, models.SessionCompleted)
}

// CancelSession marks an in-progress session as cancelled. Its items are
// kept for audit; they are superseded if the session is ever recreated.
func (s *Service) CancelSession(ctx context.Context, sessionID, userID string) (*models.ReconciliationSession, error) {
	return s.transition(ctx, sessionID, userID, models.SessionCancelled)
}

func (s *Service) transition(ctx context.Context, sessionID, userID string, to models.SessionStatus) (*models.ReconciliationSession, error) {
	session, err := s.store.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, engerrors.Validation(engerrors.CodeInvalidState, "session status", string(session.Status),
			"only in-progress sessions can change state")
	}

	session.Status = to
	completedAt := s.now().UTC()
	session.CompletedAt = &completedAt

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, engerrors.Storage("update session status", err)
	}

	s.log.WithFields(logger.Fields{
		"session_id": sessionID,
		"status":     string(to),
		"balanced":   session.IsBalanced(),
	}).Info("session state changed")
	return session, nil
}
