package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/repository"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) PublicData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.catalog.PublicData(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, doc)
}

// ListShops returns every matching shop, or one page of them when ?page is
// present.
func (h *CatalogHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	zoneID, err := queryInt(r, "zone_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := queryInt(r, "category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	shops, err := h.catalog.ListShops(r.Context(), service.ShopFilter{
		ZoneID:     zoneID,
		CategoryID: categoryID,
		Query:      r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !r.URL.Query().Has("page") {
		response.JSON(w, r, http.StatusOK, shops)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, repository.Paginate(shops, repository.PageRequest{Page: page, PageSize: size}))
}

func (h *CatalogHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := h.catalog.GetShop(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, shop)
}

func (h *CatalogHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var in domain.Shop
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := h.catalog.CreateShop(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "shop.create", "shop_id", shop.ID)
	response.JSON(w, r, http.StatusCreated, shop)
}

func (h *CatalogHandler) ReplaceShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.Shop
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := h.catalog.ReplaceShop(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "shop.replace", "shop_id", id)
	response.JSON(w, r, http.StatusOK, shop)
}

func (h *CatalogHandler) PatchShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch service.ShopPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := h.catalog.PatchShop(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "shop.patch", "shop_id", id)
	response.JSON(w, r, http.StatusOK, shop)
}

func (h *CatalogHandler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteShop(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "shop.delete", "shop_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, c)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "category.create", "category_id", c.ID)
	response.JSON(w, r, http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.Category
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "category.update", "category_id", id)
	response.JSON(w, r, http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "category.delete", "category_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (h *CatalogHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.catalog.ListZones(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, zones)
}

func (h *CatalogHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	z, err := h.catalog.GetZone(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, z)
}

func (h *CatalogHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var in domain.Zone
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	z, err := h.catalog.CreateZone(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "zone.create", "zone_id", z.ID)
	response.JSON(w, r, http.StatusCreated, z)
}

func (h *CatalogHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.Zone
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	z, err := h.catalog.UpdateZone(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "zone.update", "zone_id", id)
	response.JSON(w, r, http.StatusOK, z)
}

func (h *CatalogHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteZone(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "zone.delete", "zone_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (h *CatalogHandler) GetBanners(w http.ResponseWriter, r *http.Request) {
	b, err := h.catalog.GetBanners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, b)
}

type bannerRequest struct {
	URLs []string `json:"urls"`
}

func (h *CatalogHandler) SetBanner(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	var in bannerRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	urls, err := h.catalog.SetBanner(r.Context(), slot, in.URLs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "banner.update", "slot", slot, "count", len(urls))
	response.JSON(w, r, http.StatusOK, map[string]any{"slot": slot, "urls": urls})
}

type imageRequest struct {
	URL string `json:"url"`
}

func (h *CatalogHandler) SetImage(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	var in imageRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.SetImage(r.Context(), slot, in.URL); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "image.update", "slot", slot)
	response.JSON(w, r, http.StatusOK, map[string]string{"slot": slot, "url": in.URL})
}

func (h *CatalogHandler) GetBranding(w http.ResponseWriter, r *http.Request) {
	b, err := h.catalog.GetBranding(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, b)
}

func (h *CatalogHandler) SetBranding(w http.ResponseWriter, r *http.Request) {
	var in domain.Branding
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.catalog.SetBranding(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, "branding.update")
	response.JSON(w, r, http.StatusOK, b)
}
