package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mayoristas-py/directory-admin/internal/domain"
)

func newCatalogForTest(t *testing.T) *CatalogService {
	t.Helper()
	store := newStoreForTest(t)
	seedDocument(t, store, func(doc *domain.Document) {
		doc.Categories = append(doc.Categories, domain.Category{ID: 1, Name: "Almacén"}, domain.Category{ID: 2, Name: "Bebidas"})
		doc.Zones = append(doc.Zones, domain.Zone{ID: 1, Name: "Centro"}, domain.Zone{ID: 2, Name: "Norte"})
		doc.Shops = append(doc.Shops, domain.Shop{ID: 10, Name: "Don Pepe", Categories: []int{1}, ZoneID: 1})
	})
	return NewCatalogService(store)
}

func shopIDs(t *testing.T, svc *CatalogService) []int {
	t.Helper()
	shops, err := svc.ListShops(context.Background(), ShopFilter{})
	if err != nil {
		t.Fatalf("list shops: %v", err)
	}
	ids := make([]int, 0, len(shops))
	for _, s := range shops {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestCreateShopValidatesReferences(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		shop domain.Shop
		want error
	}{
		{name: "missing category", shop: domain.Shop{ID: 11, Name: "A", Categories: []int{1, 99}, ZoneID: 1}, want: ErrInvalidReference},
		{name: "missing zone", shop: domain.Shop{ID: 11, Name: "A", Categories: []int{1}, ZoneID: 42}, want: ErrInvalidReference},
		{name: "duplicate id", shop: domain.Shop{ID: 10, Name: "A", ZoneID: 1}, want: ErrDuplicateID},
		{name: "missing name", shop: domain.Shop{ID: 11, ZoneID: 1}, want: ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateShop(ctx, tc.shop); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if ids := shopIDs(t, svc); len(ids) != 1 || ids[0] != 10 {
				t.Fatalf("shop collection changed: %v", ids)
			}
		})
	}

	created, err := svc.CreateShop(ctx, domain.Shop{ID: 11, Name: "Bodega", Categories: []int{2}, ZoneID: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CategoriePages == nil {
		t.Fatal("expected normalized empty slices")
	}
}

func TestShopReplacePatchDelete(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	replaced, err := svc.ReplaceShop(ctx, 10, domain.Shop{ID: 999, Name: "Don Pepe SA", Categories: []int{1, 2}, ZoneID: 2})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.ID != 10 {
		t.Fatalf("path id must win, got %d", replaced.ID)
	}

	city := "Luque"
	badZone := 77
	if _, err := svc.PatchShop(ctx, 10, ShopPatch{City: &city, ZoneID: &badZone}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	patched, err := svc.PatchShop(ctx, 10, ShopPatch{City: &city})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.City != "Luque" || patched.Name != "Don Pepe SA" || patched.ZoneID != 2 {
		t.Fatalf("unexpected patched shop: %+v", patched)
	}

	if err := svc.DeleteShop(ctx, 10); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetShop(ctx, 10); !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}
	if err := svc.DeleteShop(ctx, 10); !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound on second delete, got %v", err)
	}
}

func TestPatchShopRejectsInvertedHours(t *testing.T) {
	svc := newCatalogForTest(t)
	wh := &domain.WorkingHours{Lunes: &domain.WorkingDay{OpenTime: 18 * 60, CloseTime: 8 * 60, IsOpen: true}}
	if _, err := svc.PatchShop(context.Background(), 10, ShopPatch{WorkingHours: wh}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteZoneAndCategoryInUse(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	if err := svc.DeleteZone(ctx, 1); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse for referenced zone, got %v", err)
	}
	if err := svc.DeleteZone(ctx, 2); err != nil {
		t.Fatalf("delete unreferenced zone: %v", err)
	}
	zones, _ := svc.ListZones(ctx)
	if len(zones) != 1 || zones[0].ID != 1 {
		t.Fatalf("unexpected zones: %+v", zones)
	}

	if err := svc.DeleteCategory(ctx, 1); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse for referenced category, got %v", err)
	}
	if err := svc.DeleteCategory(ctx, 2); err != nil {
		t.Fatalf("delete unreferenced category: %v", err)
	}
	if err := svc.DeleteCategory(ctx, 2); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCategoryAndZoneCRUD(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, domain.Category{ID: 1, Name: "dup"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := svc.CreateZone(ctx, domain.Zone{ID: 3, Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	z, err := svc.UpdateZone(ctx, 2, domain.Zone{Name: "Norte Alto"})
	if err != nil || z.ID != 2 {
		t.Fatalf("update zone: %+v %v", z, err)
	}
	if _, err := svc.UpdateCategory(ctx, 50, domain.Category{Name: "x"}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestBannersImagesBranding(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	if _, err := svc.SetBanner(ctx, BannerPrimary, []string{"https://cdn/a.png"}); err != nil {
		t.Fatalf("set banner: %v", err)
	}
	if _, err := svc.SetBanner(ctx, "tertiary", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	banners, _ := svc.GetBanners(ctx)
	if len(banners.Primary) != 1 || len(banners.Secondary) != 0 {
		t.Fatalf("unexpected banners: %+v", banners)
	}

	if err := svc.SetImage(ctx, ImageOtherBusinesses, "https://cdn/o.png"); err != nil {
		t.Fatalf("set image: %v", err)
	}
	color := "#ff0000"
	if _, err := svc.SetBranding(ctx, domain.Branding{PrimaryColor: &color}); err != nil {
		t.Fatalf("set branding: %v", err)
	}
	pub, _ := svc.PublicData(ctx)
	if pub.OtherBusinesses != "https://cdn/o.png" || pub.Branding.PrimaryColor == nil {
		t.Fatalf("unexpected public data: %+v", pub)
	}
}

func TestCatalogAcceptsZeroIDsAndRejectsNegative(t *testing.T) {
	svc := newCatalogForTest(t)
	ctx := context.Background()

	if _, err := svc.CreateZone(ctx, domain.Zone{ID: 0, Name: "Sin zona"}); err != nil {
		t.Fatalf("zone id 0: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, domain.Category{ID: 0, Name: "Varios"}); err != nil {
		t.Fatalf("category id 0: %v", err)
	}
	if _, err := svc.CreateShop(ctx, domain.Shop{ID: 0, Name: "Kiosco", Categories: []int{0}, ZoneID: 0}); err != nil {
		t.Fatalf("shop id 0: %v", err)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"zone", func() error { _, err := svc.CreateZone(ctx, domain.Zone{ID: -1, Name: "X"}); return err }},
		{"category", func() error { _, err := svc.CreateCategory(ctx, domain.Category{ID: -1, Name: "X"}); return err }},
		{"shop", func() error {
			_, err := svc.CreateShop(ctx, domain.Shop{ID: -1, Name: "X", ZoneID: 1})
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fn(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput for a negative id, got %v", err)
			}
		})
	}
}
