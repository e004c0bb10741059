package services

import (
	"context"

	"facturacion/internal/domain"
	"facturacion/internal/events"
	"facturacion/internal/metrics"
	"facturacion/internal/repos"
)

type CustomerService struct {
	Store   *repos.Store
	Events  Publisher
	Metrics *metrics.Metrics
}

func NewCustomerService(store *repos.Store, pub Publisher, m *metrics.Metrics) *CustomerService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &CustomerService{Store: store, Events: pub, Metrics: m}
}

// CustomerPatch carries a partial update. Nil fields are left unchanged.
type CustomerPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.Store.Repos().Customers.List(ctx)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (domain.Customer, error) {
	return s.Store.Repos().Customers.Get(ctx, id)
}

func (s *CustomerService) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return domain.Customer{}, err
	}
	err := s.Store.InTx(ctx, func(r repos.Repos) error {
		taken, err := r.Customers.EmailTaken(ctx, c.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrEmailTaken
		}
		return r.Customers.Create(ctx, &c)
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id int64, patch CustomerPatch) (domain.Customer, error) {
	var out domain.Customer
	err := s.Store.InTx(ctx, func(r repos.Repos) error {
		c, err := r.Customers.Get(ctx, id)
		if err != nil {
			return err
		}
		if patch.FirstName != nil {
			c.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			c.LastName = *patch.LastName
		}
		if patch.Email != nil {
			c.Email = *patch.Email
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if patch.Email != nil {
			taken, err := r.Customers.EmailTaken(ctx, c.Email, c.ID)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrEmailTaken
			}
		}
		if err := r.Customers.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return out, nil
}

// Delete removes the customer together with every sale it owns. Each sale
// gives its stock back exactly as a direct sale deletion would.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	var (
		removed  []domain.SaleView
		restored int
	)
	err := s.Store.InTx(ctx, func(r repos.Repos) error {
		if _, err := r.Customers.Get(ctx, id); err != nil {
			return err
		}
		sales, err := r.Sales.ListByCustomer(ctx, id)
		if err != nil {
			return err
		}
		for _, sale := range sales {
			view, n, err := deleteSale(ctx, r, sale.ID)
			if err != nil {
				return err
			}
			removed = append(removed, view)
			restored += n
		}
		return r.Customers.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.Metrics.AddStockUnits(metrics.StockRestored, restored)
	for _, v := range removed {
		s.Events.Publish(ctx, events.NewSaleEvent(events.SaleDeleted, v))
	}
	return nil
}
