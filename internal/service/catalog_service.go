package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/repository"
)

const (
	BannerPrimary   = "primary"
	BannerSecondary = "secondary"

	ImageRecommended     = "recommended"
	ImageOtherBusinesses = "other-businesses"
)

type ShopFilter struct {
	ZoneID     int
	CategoryID int
	Query      string
}

type ShopPatch struct {
	Name              *string              `json:"name"`
	Owner             *string              `json:"owner"`
	ContactNumber     *string              `json:"contact_number"`
	Categories        *[]int               `json:"categories"`
	WorkingHours      *domain.WorkingHours `json:"working_hours"`
	ClearWorkingHours bool                 `json:"clear_working_hours"`
	City              *string              `json:"city"`
	ZoneID            *int                 `json:"zone_id"`
	CategoriePages    *[]string            `json:"categorie_pages"`
	Img               *string              `json:"img"`
}

type Banners struct {
	Primary   []string `json:"primary_banner"`
	Secondary []string `json:"secondary_banner"`
}

type CatalogService struct {
	store repository.DocumentStore
}

func NewCatalogService(store repository.DocumentStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) PublicData(ctx context.Context) (domain.PublicDocument, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.PublicDocument{}, err
	}
	return doc.Public(), nil
}

func (s *CatalogService) ListShops(ctx context.Context, filter ShopFilter) ([]domain.Shop, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Shop, 0, len(doc.Shops))
	for _, shop := range doc.Shops {
		if filter.ZoneID != 0 && shop.ZoneID != filter.ZoneID {
			continue
		}
		if filter.CategoryID != 0 && !slices.Contains(shop.Categories, filter.CategoryID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(shop.Name), q) && !strings.Contains(strings.ToLower(shop.Owner), q) {
			continue
		}
		out = append(out, shop)
	}
	return out, nil
}

func (s *CatalogService) GetShop(ctx context.Context, id int) (*domain.Shop, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.ShopIndex(id)
	if i < 0 {
		return nil, ErrShopNotFound
	}
	return &doc.Shops[i], nil
}

func (s *CatalogService) CreateShop(ctx context.Context, shop domain.Shop) (*domain.Shop, error) {
	normalizeShop(&shop)
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if doc.ShopIndex(shop.ID) >= 0 {
			return fmt.Errorf("%w: shop %d", ErrDuplicateID, shop.ID)
		}
		if err := validateShop(doc, &shop); err != nil {
			return err
		}
		doc.Shops = append(doc.Shops, shop)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "shop", "create")
	return &shop, nil
}

// ReplaceShop overwrites the shop at id. The path id wins over the body.
func (s *CatalogService) ReplaceShop(ctx context.Context, id int, shop domain.Shop) (*domain.Shop, error) {
	shop.ID = id
	normalizeShop(&shop)
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.ShopIndex(id)
		if i < 0 {
			return ErrShopNotFound
		}
		if err := validateShop(doc, &shop); err != nil {
			return err
		}
		doc.Shops[i] = shop
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "shop", "replace")
	return &shop, nil
}

func (s *CatalogService) PatchShop(ctx context.Context, id int, patch ShopPatch) (*domain.Shop, error) {
	var out domain.Shop
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.ShopIndex(id)
		if i < 0 {
			return ErrShopNotFound
		}
		shop := doc.Shops[i]
		applyShopPatch(&shop, patch)
		normalizeShop(&shop)
		if err := validateShop(doc, &shop); err != nil {
			return err
		}
		doc.Shops[i] = shop
		out = shop
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "shop", "patch")
	return &out, nil
}

func (s *CatalogService) DeleteShop(ctx context.Context, id int) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.ShopIndex(id)
		if i < 0 {
			return ErrShopNotFound
		}
		doc.Shops = slices.Delete(doc.Shops, i, i+1)
		return nil
	})
	if err == nil {
		observability.RecordAdminMutation(ctx, "shop", "delete")
	}
	return err
}

func applyShopPatch(shop *domain.Shop, p ShopPatch) {
	if p.Name != nil {
		shop.Name = *p.Name
	}
	if p.Owner != nil {
		shop.Owner = *p.Owner
	}
	if p.ContactNumber != nil {
		shop.ContactNumber = *p.ContactNumber
	}
	if p.Categories != nil {
		shop.Categories = *p.Categories
	}
	if p.ClearWorkingHours {
		shop.WorkingHours = nil
	} else if p.WorkingHours != nil {
		shop.WorkingHours = p.WorkingHours
	}
	if p.City != nil {
		shop.City = *p.City
	}
	if p.ZoneID != nil {
		shop.ZoneID = *p.ZoneID
	}
	if p.CategoriePages != nil {
		shop.CategoriePages = *p.CategoriePages
	}
	if p.Img != nil {
		shop.Img = *p.Img
	}
}

func normalizeShop(shop *domain.Shop) {
	shop.Name = strings.TrimSpace(shop.Name)
	if shop.Categories == nil {
		shop.Categories = []int{}
	}
	if shop.CategoriePages == nil {
		shop.CategoriePages = []string{}
	}
	if shop.WorkingHours != nil && shop.WorkingHours.Empty() {
		shop.WorkingHours = nil
	}
}

func validateShop(doc *domain.Document, shop *domain.Shop) error {
	if shop.ID < 0 {
		return fmt.Errorf("%w: shop id must not be negative", ErrInvalidInput)
	}
	if shop.Name == "" {
		return fmt.Errorf("%w: shop name is required", ErrInvalidInput)
	}
	for _, c := range shop.Categories {
		if doc.CategoryIndex(c) < 0 {
			return fmt.Errorf("%w: category %d", ErrInvalidReference, c)
		}
	}
	if doc.ZoneIndex(shop.ZoneID) < 0 {
		return fmt.Errorf("%w: zone %d", ErrInvalidReference, shop.ZoneID)
	}
	if shop.WorkingHours != nil {
		for day, wd := range shop.WorkingHours.Days() {
			if wd != nil && wd.IsOpen && wd.CloseTime < wd.OpenTime {
				return fmt.Errorf("%w: %s closes before it opens", ErrInvalidInput, day)
			}
		}
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.CategoryIndex(id)
	if i < 0 {
		return nil, ErrCategoryNotFound
	}
	return &doc.Categories[i], nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if err := validateNamed(c.ID, c.Name, "category"); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if doc.CategoryIndex(c.ID) >= 0 {
			return fmt.Errorf("%w: category %d", ErrDuplicateID, c.ID)
		}
		doc.Categories = append(doc.Categories, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "category", "create")
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int, c domain.Category) (*domain.Category, error) {
	c.ID = id
	if err := validateNamed(c.ID, c.Name, "category"); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.CategoryIndex(id)
		if i < 0 {
			return ErrCategoryNotFound
		}
		doc.Categories[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "category", "update")
	return &c, nil
}

// DeleteCategory refuses to remove a category that any shop references.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.CategoryIndex(id)
		if i < 0 {
			return ErrCategoryNotFound
		}
		if shops := doc.ShopsReferencingCategory(id); len(shops) > 0 {
			return fmt.Errorf("%w: category %d is used by shops %v", ErrInUse, id, shops)
		}
		doc.Categories = slices.Delete(doc.Categories, i, i+1)
		return nil
	})
	if err == nil {
		observability.RecordAdminMutation(ctx, "category", "delete")
	}
	return err
}

func (s *CatalogService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Zones, nil
}

func (s *CatalogService) GetZone(ctx context.Context, id int) (*domain.Zone, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.ZoneIndex(id)
	if i < 0 {
		return nil, ErrZoneNotFound
	}
	return &doc.Zones[i], nil
}

func (s *CatalogService) CreateZone(ctx context.Context, z domain.Zone) (*domain.Zone, error) {
	if err := validateNamed(z.ID, z.Name, "zone"); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		if doc.ZoneIndex(z.ID) >= 0 {
			return fmt.Errorf("%w: zone %d", ErrDuplicateID, z.ID)
		}
		doc.Zones = append(doc.Zones, z)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "zone", "create")
	return &z, nil
}

func (s *CatalogService) UpdateZone(ctx context.Context, id int, z domain.Zone) (*domain.Zone, error) {
	z.ID = id
	if err := validateNamed(z.ID, z.Name, "zone"); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.ZoneIndex(id)
		if i < 0 {
			return ErrZoneNotFound
		}
		doc.Zones[i] = z
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "zone", "update")
	return &z, nil
}

func (s *CatalogService) DeleteZone(ctx context.Context, id int) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		i := doc.ZoneIndex(id)
		if i < 0 {
			return ErrZoneNotFound
		}
		if shops := doc.ShopsInZone(id); len(shops) > 0 {
			return fmt.Errorf("%w: zone %d is used by shops %v", ErrInUse, id, shops)
		}
		doc.Zones = slices.Delete(doc.Zones, i, i+1)
		return nil
	})
	if err == nil {
		observability.RecordAdminMutation(ctx, "zone", "delete")
	}
	return err
}

func validateNamed(id int, name, kind string) error {
	if id < 0 {
		return fmt.Errorf("%w: %s id must not be negative", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s name is required", ErrInvalidInput, kind)
	}
	return nil
}

func (s *CatalogService) GetBanners(ctx context.Context) (Banners, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return Banners{}, err
	}
	return Banners{Primary: doc.PrimaryBanner, Secondary: doc.SecondaryBanner}, nil
}

func (s *CatalogService) SetBanner(ctx context.Context, slot string, urls []string) ([]string, error) {
	if urls == nil {
		urls = []string{}
	}
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		switch slot {
		case BannerPrimary:
			doc.PrimaryBanner = urls
		case BannerSecondary:
			doc.SecondaryBanner = urls
		default:
			return fmt.Errorf("%w: unknown banner %q", ErrInvalidInput, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordAdminMutation(ctx, "banner", slot)
	return urls, nil
}

func (s *CatalogService) SetImage(ctx context.Context, slot, url string) error {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		switch slot {
		case ImageRecommended:
			doc.RecommendedImage = url
		case ImageOtherBusinesses:
			doc.OtherBusinesses = url
		default:
			return fmt.Errorf("%w: unknown image %q", ErrInvalidInput, slot)
		}
		return nil
	})
	if err == nil {
		observability.RecordAdminMutation(ctx, "image", slot)
	}
	return err
}

func (s *CatalogService) GetBranding(ctx context.Context) (domain.Branding, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.Branding{}, err
	}
	return doc.Branding, nil
}

func (s *CatalogService) SetBranding(ctx context.Context, b domain.Branding) (domain.Branding, error) {
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.Branding = b
		return nil
	})
	if err != nil {
		return domain.Branding{}, err
	}
	observability.RecordAdminMutation(ctx, "branding", "update")
	return b, nil
}
