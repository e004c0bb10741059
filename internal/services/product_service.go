package services

import (
	"context"
	"fmt"

	"facturacion/internal/domain"
	"facturacion/internal/repos"
)

type ProductService struct {
	Store *repos.Store
}

func NewProductService(store *repos.Store) *ProductService {
	return &ProductService{Store: store}
}

// ProductPatch carries a partial update. Nil fields are left unchanged.
type ProductPatch struct {
	Name  *string
	Price *int64
	Stock *int
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Store.Repos().Products.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.Store.Repos().Products.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = 0
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.Store.Repos().Products.Create(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, patch ProductPatch) (domain.Product, error) {
	var out domain.Product
	err := s.Store.InTx(ctx, func(r repos.Repos) error {
		p, err := r.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// Delete refuses to remove a product that any sale line still references.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.Store.InTx(ctx, func(r repos.Repos) error {
		ok, err := r.Products.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
		}
		used, err := r.Products.Referenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domain.ErrProductInUse
		}
		return r.Products.Delete(ctx, id)
	})
}
