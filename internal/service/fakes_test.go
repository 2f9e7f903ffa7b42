package service

import (
	"context"
	"sort"
	"sync"

	"gnosislens-api/internal/model"
	"gnosislens-api/internal/repository"
)

type memRepo struct {
	mu        sync.Mutex
	purchases []model.PurchaseRecord
	markets   map[string]*model.MarketPriceAggregate
	saveErr   error
	upsertErr error
	listCalls int
}

var _ repository.PurchaseRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{markets: make(map[string]*model.MarketPriceAggregate)}
}

func (r *memRepo) SavePurchase(ctx context.Context, p *model.PurchaseRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return "", r.saveErr
	}
	r.purchases = append(r.purchases, *p)
	return p.ID, nil
}

func (r *memRepo) GetPurchaseHistory(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	all, _ := r.ListPurchases(ctx, userID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memRepo) ListPurchases(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []model.PurchaseRecord
	for _, p := range r.purchases {
		if userID == "" || p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) UpsertMarketPrice(ctx context.Context, country, itemName string, u model.MarketPriceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	key := country + "|" + itemName
	agg, ok := r.markets[key]
	if !ok {
		agg = &model.MarketPriceAggregate{Country: country, ItemName: itemName, DataSource: model.MarketDataSource}
		r.markets[key] = agg
	}
	agg.Currency, agg.FairPriceMin, agg.FairPriceMax = u.Currency, u.FairPriceMin, u.FairPriceMax
	agg.ReportCount++
	agg.PriceReports = append(agg.PriceReports, u.Report)
	return nil
}

func (r *memRepo) GetMarketPrices(ctx context.Context, country, itemName string) ([]model.MarketPriceAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MarketPriceAggregate
	for _, agg := range r.markets {
		if agg.Country == country && (itemName == "" || agg.ItemName == itemName) {
			out = append(out, *agg)
		}
	}
	return out, nil
}

func (r *memRepo) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"type": "memory"}, nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }
func (r *memRepo) Close() error                   { return nil }

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*model.User)}
}

func (m *memUsers) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = "user-" + u.Username
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}
