package dummydb

import (
	"context"

	"github.com/rspmedika/mutabaah/core/mutabaah"
)

type ledgerRepository struct {
	db *DB
}

var _ mutabaah.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) mutabaah.Repository {
	return &ledgerRepository{db: db}
}

func (repo *ledgerRepository) GetMonth(_ context.Context, employeeID, monthKey string) (mutabaah.MonthMap, error) {
	repo.db.ledger.RLock()
	defer repo.db.ledger.RUnlock()

	if m, ok := repo.db.ledger.months[ledgerKey(employeeID, monthKey)]; ok {
		return m.Clone(), nil
	}
	return mutabaah.MonthMap{}, nil
}

func (repo *ledgerRepository) SaveMonth(_ context.Context, employeeID, monthKey string, m mutabaah.MonthMap) error {
	repo.db.ledger.Lock()
	defer repo.db.ledger.Unlock()

	// last line of defense: foreign day keys must never be stored
	repo.db.ledger.months[ledgerKey(employeeID, monthKey)] = mutabaah.SanitizeMonth(m)
	return nil
}

func (repo *ledgerRepository) ListActivations(_ context.Context, employeeID string) ([]string, error) {
	repo.db.ledger.RLock()
	defer repo.db.ledger.RUnlock()

	months := repo.db.ledger.activations[employeeID]
	out := make([]string, len(months))
	copy(out, months)
	return out, nil
}

func (repo *ledgerRepository) SaveActivation(_ context.Context, employeeID, monthKey string) error {
	repo.db.ledger.Lock()
	defer repo.db.ledger.Unlock()

	for _, m := range repo.db.ledger.activations[employeeID] {
		if m == monthKey {
			return nil
		}
	}
	repo.db.ledger.activations[employeeID] = append(repo.db.ledger.activations[employeeID], monthKey)
	return nil
}

func (repo *ledgerRepository) CreateRequest(_ context.Context, req mutabaah.ManualRequest) (mutabaah.ManualRequest, error) {
	repo.db.request.Lock()
	defer repo.db.request.Unlock()

	repo.db.request.table[req.ID] = &req
	repo.db.request.order = append(repo.db.request.order, req.ID)
	return req, nil
}

func (repo *ledgerRepository) GetRequest(_ context.Context, id string) (mutabaah.ManualRequest, error) {
	repo.db.request.RLock()
	defer repo.db.request.RUnlock()

	if req, ok := repo.db.request.table[id]; ok {
		return *req, nil
	}
	return mutabaah.ManualRequest{}, mutabaah.ErrRequestNotFound
}

func (repo *ledgerRepository) UpdateRequest(_ context.Context, req mutabaah.ManualRequest) (mutabaah.ManualRequest, error) {
	repo.db.request.Lock()
	defer repo.db.request.Unlock()

	if _, ok := repo.db.request.table[req.ID]; !ok {
		return mutabaah.ManualRequest{}, mutabaah.ErrRequestNotFound
	}
	repo.db.request.table[req.ID] = &req
	return req, nil
}

func (repo *ledgerRepository) FilterRequests(_ context.Context, filter mutabaah.RequestFilter) ([]mutabaah.ManualRequest, error) {
	repo.db.request.RLock()
	defer repo.db.request.RUnlock()

	reqs := make([]mutabaah.ManualRequest, 0, len(repo.db.request.order))
	for _, id := range repo.db.request.order {
		req := repo.db.request.table[id]
		if filter.Match(*req) {
			reqs = append(reqs, *req)
		}
	}
	return reqs, nil
}
