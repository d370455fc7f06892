package vecstore

import (
	"context"

	"github.com/paddocklabs/regsearch/internal/db"
)

// mockDB records calls and returns canned results.
type mockDB struct {
	searchResult *db.SearchResult
	searchErr    error
	lastKNN      *db.KNNQuery

	hsetItems []db.HashSetItem
	hsetErr   error

	indexExists bool
	existsErr   error
	createdDef  *db.IndexDefinition
	createErr   error
}

func (m *mockDB) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchResult, nil
}

func (m *mockDB) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.hsetItems = items
	return m.hsetErr
}

func (m *mockDB) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdDef = def
	return m.createErr
}

func (m *mockDB) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, m.existsErr
}
