package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facturacion/internal/domain"
	"facturacion/internal/events"
	"facturacion/internal/metrics"
	"facturacion/internal/repos"
)

// Clock supplies sale timestamps. Implementations never fail.
type Clock interface {
	Now(ctx context.Context) string
}

// Publisher receives sale events after commit.
type Publisher interface {
	Publish(ctx context.Context, ev events.SaleEvent)
}

// SaleService is the only writer of stock changes caused by sales. Every
// mutating call runs in one store transaction.
type SaleService struct {
	Store   *repos.Store
	Clock   Clock
	Events  Publisher
	Metrics *metrics.Metrics
}

func NewSaleService(store *repos.Store, clock Clock, pub Publisher, m *metrics.Metrics) *SaleService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &SaleService{Store: store, Clock: clock, Events: pub, Metrics: m}
}

// SaleUpdate carries a partial update. Nil or empty fields are left unchanged.
type SaleUpdate struct {
	CustomerID *int64
	Lines      []domain.LineRequest
}

func (s *SaleService) List(ctx context.Context) ([]domain.SaleView, error) {
	return s.Store.Repos().Sales.Views(ctx)
}

func (s *SaleService) Get(ctx context.Context, id int64) (domain.SaleView, error) {
	return s.Store.Repos().Sales.View(ctx, id)
}

// Create reserves stock for each (product, quantity) pair in order and stores
// the sale with its lines. Nothing is persisted if any pair fails.
func (s *SaleService) Create(ctx context.Context, customerID int64, productIDs []int64, quantities []int) (view domain.SaleView, err error) {
	defer s.observe("create", time.Now(), &err)

	if customerID <= 0 {
		return domain.SaleView{}, domain.ErrCustomerRequired
	}
	if len(productIDs) == 0 || len(quantities) == 0 {
		return domain.SaleView{}, domain.ErrItemsRequired
	}
	if len(productIDs) != len(quantities) {
		return domain.SaleView{}, domain.ErrItemsMismatch
	}

	stamp := s.Clock.Now(ctx)
	reserved := 0
	err = s.Store.InTx(ctx, func(r repos.Repos) error {
		if err := requireCustomer(ctx, r, customerID); err != nil {
			return err
		}
		sale := domain.Sale{CustomerID: customerID, Timestamp: stamp}
		for i, productID := range productIDs {
			line, err := reserve(ctx, r, productID, quantities[i])
			if err != nil {
				return err
			}
			if err := sale.AddLine(line); err != nil {
				return err
			}
			reserved += line.Quantity
		}
		if err := checkInvariants(sale); err != nil {
			return err
		}
		if err := r.Sales.Create(ctx, &sale); err != nil {
			return err
		}
		view, err = r.Sales.View(ctx, sale.ID)
		return err
	})
	if err != nil {
		return domain.SaleView{}, err
	}

	s.Metrics.AddStockUnits(metrics.StockReserved, reserved)
	s.Events.Publish(ctx, events.NewSaleEvent(events.SaleCreated, view))
	return view, nil
}

// Update reassigns the customer and/or replaces the lines of a sale. When lines
// are replaced, the old reservation is restored before the new one is taken so
// a product kept on the sale nets against its own prior quantity.
func (s *SaleService) Update(ctx context.Context, id int64, upd SaleUpdate) (view domain.SaleView, err error) {
	defer s.observe("update", time.Now(), &err)

	replace := len(upd.Lines) > 0
	var stamp string
	if replace {
		// unknown ids fail before the remote clock is consulted
		if _, err := s.Store.Repos().Sales.Get(ctx, id); err != nil {
			return domain.SaleView{}, err
		}
		stamp = s.Clock.Now(ctx)
	}

	reserved, restored := 0, 0
	err = s.Store.InTx(ctx, func(r repos.Repos) error {
		sale, err := r.Sales.Get(ctx, id)
		if err != nil {
			return err
		}
		if upd.CustomerID != nil {
			if err := requireCustomer(ctx, r, *upd.CustomerID); err != nil {
				return err
			}
			sale.CustomerID = *upd.CustomerID
		}
		if replace {
			n, err := releaseLines(ctx, r, sale)
			if err != nil {
				return err
			}
			restored += n

			sale.ResetLines()
			for _, lr := range upd.Lines {
				line, err := reserve(ctx, r, lr.ProductID, lr.Quantity)
				if err != nil {
					return err
				}
				if err := sale.AddLine(line); err != nil {
					return err
				}
				reserved += line.Quantity
			}
			sale.Timestamp = stamp
			if err := r.Sales.InsertLines(ctx, sale.ID, sale.Lines); err != nil {
				return err
			}
		}
		if err := checkInvariants(sale); err != nil {
			return err
		}
		if err := r.Sales.UpdateHeader(ctx, sale); err != nil {
			return err
		}
		view, err = r.Sales.View(ctx, sale.ID)
		return err
	})
	if err != nil {
		return domain.SaleView{}, err
	}

	s.Metrics.AddStockUnits(metrics.StockRestored, restored)
	s.Metrics.AddStockUnits(metrics.StockReserved, reserved)
	s.Events.Publish(ctx, events.NewSaleEvent(events.SaleUpdated, view))
	return view, nil
}

// Delete restores the stock held by every line of the sale and removes it.
func (s *SaleService) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("delete", time.Now(), &err)

	var (
		view     domain.SaleView
		restored int
	)
	err = s.Store.InTx(ctx, func(r repos.Repos) error {
		var err error
		view, restored, err = deleteSale(ctx, r, id)
		return err
	})
	if err != nil {
		return err
	}

	s.Metrics.AddStockUnits(metrics.StockRestored, restored)
	s.Events.Publish(ctx, events.NewSaleEvent(events.SaleDeleted, view))
	return nil
}

func (s *SaleService) observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = domain.KindOf(*err).String()
	}
	s.Metrics.ObserveSaleOperation(op, outcome, time.Since(start))
}

func checkInvariants(sale domain.Sale) error {
	if errs := sale.ValidateInvariants(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func requireCustomer(ctx context.Context, r repos.Repos, id int64) error {
	ok, err := r.Customers.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Unresolved(fmt.Errorf("%w: id %d", domain.ErrCustomerNotFound, id))
	}
	return nil
}

// reserve validates one requested pair, takes the units from stock and returns
// the line priced at the product's current price.
func reserve(ctx context.Context, r repos.Repos, productID int64, qty int) (domain.SaleLine, error) {
	if qty <= 0 {
		return domain.SaleLine{}, fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, productID)
	}
	p, err := r.Products.Get(ctx, productID)
	if err != nil {
		return domain.SaleLine{}, domain.Unresolved(err)
	}
	if p.Stock < qty {
		return domain.SaleLine{}, fmt.Errorf("%w: product %d has %d, requested %d", domain.ErrInsufficientStock, productID, p.Stock, qty)
	}
	if err := r.Inventory.Reserve(ctx, productID, qty); err != nil {
		return domain.SaleLine{}, err
	}
	return domain.SaleLine{ProductID: productID, Quantity: qty, UnitPrice: p.Price}, nil
}

// releaseLines gives back the stock of every line of sale and deletes the lines.
func releaseLines(ctx context.Context, r repos.Repos, sale domain.Sale) (int, error) {
	restored := 0
	for _, l := range sale.Lines {
		if err := r.Inventory.Restore(ctx, l.ProductID, l.Quantity); err != nil {
			return 0, err
		}
		restored += l.Quantity
	}
	if err := r.Sales.DeleteLines(ctx, sale.ID); err != nil {
		return 0, err
	}
	return restored, nil
}

// deleteSale removes one sale inside r's transaction and returns its last projection.
func deleteSale(ctx context.Context, r repos.Repos, id int64) (domain.SaleView, int, error) {
	sale, err := r.Sales.Get(ctx, id)
	if err != nil {
		return domain.SaleView{}, 0, err
	}
	view, err := r.Sales.View(ctx, id)
	if err != nil {
		return domain.SaleView{}, 0, err
	}
	restored, err := releaseLines(ctx, r, sale)
	if err != nil {
		return domain.SaleView{}, 0, err
	}
	if err := r.Sales.Delete(ctx, id); err != nil {
		return domain.SaleView{}, 0, err
	}
	return view, restored, nil
}
