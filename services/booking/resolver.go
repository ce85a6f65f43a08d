package booking

import (
	"context"
	"errors"
	"time"

	providerRepo "bookwell/database/repository/provider"
	"bookwell/models"
)

// Provider is the capability set shared by every provider kind.
type Provider interface {
	ID() string
	Kind() models.ProviderKind
	// ShopID is the shop the provider is bound to, or "".
	ShopID() string
	DisplayName() string
	// Schedule is the provider's personal window on date.
	Schedule(date time.Time) (DayWindow, error)
}

type registryProvider struct {
	rec *models.Provider
}

func (p registryProvider) ID() string { return p.rec.ID }
func (p registryProvider) Kind() models.ProviderKind { return p.rec.Kind }
func (p registryProvider) ShopID() string { return p.rec.ShopID }
func (p registryProvider) DisplayName() string { return p.rec.Name }
func (p registryProvider) Schedule(d time.Time) (DayWindow, error) {
	return PersonalWindow(p.rec.Schedule, d)
}

type ownerProvider struct {
	owner *models.ShopOwner
	shop  *models.Shop
}

func (p ownerProvider) ID() string { return p.owner.ID }
func (p ownerProvider) Kind() models.ProviderKind { return models.KindShopOwner }
func (p ownerProvider) ShopID() string { return p.shop.ID }
func (p ownerProvider) DisplayName() string { return p.owner.Name }
func (p ownerProvider) Schedule(d time.Time) (DayWindow, error) {
	return PersonalWindow(p.owner.Schedule, d)
}

// Resolver turns an opaque provider identifier into a Provider.
type Resolver struct {
	Providers providerRepo.ProviderRepository
}

// Resolve looks the identifier up in the provider registry first and then
// among shop owners by shop ownership.
func (r *Resolver) Resolve(ctx context.Context, id string) (Provider, error) {
	if id == "" {
		return nil, notFound(CodeProviderNotFound, "provider id is empty")
	}

	rec, err := r.Providers.GetByID(ctx, id)
	switch {
	case err == nil:
		if rec.Kind != models.KindStaff && rec.Kind != models.KindFreelancer {
			return nil, dependency(nil, "provider %s has unknown kind %q", id, rec.Kind)
		}
		return registryProvider{rec: rec}, nil
	case !errors.Is(err, providerRepo.ErrNotFound):
		return nil, dependency(err, "provider lookup failed")
	}

	owner, err := r.Providers.GetShopOwner(ctx, id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, notFound(CodeProviderNotFound, "provider %s not found", id)
		}
		return nil, dependency(err, "shop owner lookup failed")
	}
	shop, err := r.Providers.GetShopByOwner(ctx, id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, notFound(CodeProviderNotFound, "provider %s owns no shop", id)
		}
		return nil, dependency(err, "shop lookup failed")
	}
	return ownerProvider{owner: owner, shop: shop}, nil
}
