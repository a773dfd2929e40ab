package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

// PartyRepo clientes o proveedores según kind.
type PartyRepo struct {
	src  source
	kind string
}

func (r *PartyRepo) Create(_ context.Context, party *entity.Party) error {
	return r.src.write(func(s *state) error {
		if _, ok := s.parties[r.kind][party.ID]; ok {
			return domain.ErrDuplicate
		}
		s.parties[r.kind][party.ID] = *party
		return nil
	})
}

func (r *PartyRepo) GetByID(_ context.Context, id string) (*entity.Party, error) {
	var out *entity.Party
	err := r.src.read(func(s *state) error {
		if p, ok := s.parties[r.kind][id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PartyRepo) List(_ context.Context, limit, offset int) ([]*entity.Party, error) {
	var out []*entity.Party
	err := r.src.read(func(s *state) error {
		all := make([]*entity.Party, 0, len(s.parties[r.kind]))
		for _, p := range s.parties[r.kind] {
			p := p
			all = append(all, &p)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].ID < all[j].ID
		})
		for i := offset; i < len(all) && (limit <= 0 || i < offset+limit); i++ {
			out = append(out, all[i])
		}
		return nil
	})
	return out, err
}

func (r *PartyRepo) ApplyBalance(_ context.Context, id string, balanceDelta, purchasesDelta decimal.Decimal) error {
	return r.src.write(func(s *state) error {
		p, ok := s.parties[r.kind][id]
		if !ok {
			return domain.ErrNotFound
		}
		p.Balance = p.Balance.Add(balanceDelta)
		p.TotalPurchases = p.TotalPurchases.Add(purchasesDelta)
		s.parties[r.kind][id] = p
		return nil
	})
}
