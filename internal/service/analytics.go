package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/mayoristas-py/directory-admin/internal/repository"
)

const (
	ChartShopsByZone          = "shops-by-zone"
	ChartCategoryDistribution = "categories-distribution"
	ChartShopsByCategory      = "shops-by-category"
	ChartWorkingHours         = "working-hours-distribution"

	topCategoriesPie = 10
	topCategoriesBar = 15
)

// Charts lists the dashboard charts in display order.
var Charts = []string{ChartShopsByZone, ChartCategoryDistribution, ChartShopsByCategory, ChartWorkingHours}

type CountPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ChartData struct {
	Name   string       `json:"name"`
	Title  string       `json:"title"`
	Kind   string       `json:"kind"`
	Points []CountPoint `json:"points"`
}

type AnalyticsService struct {
	store repository.DocumentStore
}

func NewAnalyticsService(store repository.DocumentStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Chart(ctx context.Context, name string) (*ChartData, error) {
	switch name {
	case ChartShopsByZone:
		points, err := s.ShopsByZone(ctx)
		return &ChartData{Name: name, Title: "Comercios por zona", Kind: "bar", Points: points}, err
	case ChartCategoryDistribution:
		points, err := s.TopCategories(ctx, topCategoriesPie)
		return &ChartData{Name: name, Title: "Top 10 categorías", Kind: "pie", Points: points}, err
	case ChartShopsByCategory:
		points, err := s.TopCategories(ctx, topCategoriesBar)
		return &ChartData{Name: name, Title: "Top 15 categorías por cantidad de comercios", Kind: "bar", Points: points}, err
	case ChartWorkingHours:
		points, err := s.WorkingHoursDistribution(ctx)
		return &ChartData{Name: name, Title: "Distribución de horarios", Kind: "pie", Points: points}, err
	}
	return nil, fmt.Errorf("%w: unknown chart %q", ErrInvalidInput, name)
}

// ShopsByZone counts shops per zone, ordered by zone as listed. Shops
// pointing at a missing zone are grouped under "Zona <id>".
func (s *AnalyticsService) ShopsByZone(ctx context.Context) ([]CountPoint, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[int]int{}
	var order []int
	for _, z := range doc.Zones {
		order = append(order, z.ID)
	}
	for _, shop := range doc.Shops {
		if _, seen := counts[shop.ZoneID]; !seen && doc.ZoneIndex(shop.ZoneID) < 0 {
			order = append(order, shop.ZoneID)
		}
		counts[shop.ZoneID]++
	}
	points := make([]CountPoint, 0, len(order))
	for _, id := range order {
		if counts[id] == 0 {
			continue
		}
		label := fmt.Sprintf("Zona %d", id)
		if i := doc.ZoneIndex(id); i >= 0 {
			label = doc.Zones[i].Name
		}
		points = append(points, CountPoint{Label: label, Count: counts[id]})
	}
	return points, nil
}

// TopCategories returns the limit most used categories, ties broken by id.
func (s *AnalyticsService) TopCategories(ctx context.Context, limit int) ([]CountPoint, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[int]int{}
	for _, shop := range doc.Shops {
		for _, c := range shop.Categories {
			counts[c]++
		}
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	points := make([]CountPoint, 0, len(ids))
	for _, id := range ids {
		label := fmt.Sprintf("Categoría %d", id)
		if i := doc.CategoryIndex(id); i >= 0 {
			label = doc.Categories[i].Name
		}
		points = append(points, CountPoint{Label: label, Count: counts[id]})
	}
	return points, nil
}

func (s *AnalyticsService) WorkingHoursDistribution(ctx context.Context) ([]CountPoint, error) {
	doc, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	with := 0
	for _, shop := range doc.Shops {
		if !shop.WorkingHours.Empty() {
			with++
		}
	}
	return []CountPoint{
		{Label: "Con horario", Count: with},
		{Label: "Sin horario", Count: len(doc.Shops) - with},
	}, nil
}
