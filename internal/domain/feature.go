package domain

import "slices"

const (
	FeatureDashboard          = "dashboard"
	FeatureShopManagement     = "shop_management"
	FeatureCategoryManagement = "category_management"
	FeatureZoneManagement     = "zone_management"
	FeatureBannerManagement   = "banner_management"
	FeatureBrandingManagement = "branding_management"
	FeatureDeviceManagement   = "device_management"
)

type FeatureAccess struct {
	FeatureID          string   `json:"feature_id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Icon               string   `json:"icon"`
	IsEnabled          bool     `json:"is_enabled"`
	RequiresDeviceAuth bool     `json:"requires_device_auth"`
	AuthorizedDevices  []string `json:"authorized_devices"`
}

func (f *FeatureAccess) HasDevice(uuid string) bool {
	return slices.Contains(f.AuthorizedDevices, uuid)
}

// GrantDevice adds uuid to the allow-list; it reports whether the list changed.
func (f *FeatureAccess) GrantDevice(uuid string) bool {
	if f.HasDevice(uuid) {
		return false
	}
	f.AuthorizedDevices = append(f.AuthorizedDevices, uuid)
	return true
}

func (f *FeatureAccess) RevokeDevice(uuid string) bool {
	before := len(f.AuthorizedDevices)
	f.AuthorizedDevices = slices.DeleteFunc(f.AuthorizedDevices, func(d string) bool { return d == uuid })
	return len(f.AuthorizedDevices) != before
}

// DefaultFeatures is the seed set reconciled into the document at startup.
// Seeded features are enabled and open to any registered device.
func DefaultFeatures() []FeatureAccess {
	seed := []FeatureAccess{
		{FeatureID: FeatureDashboard, Name: "Panel", Description: "Panel principal y estadísticas", Icon: "chart-bar"},
		{FeatureID: FeatureShopManagement, Name: "Comercios", Description: "Alta, edición y baja de comercios", Icon: "store"},
		{FeatureID: FeatureCategoryManagement, Name: "Categorías", Description: "Gestión de categorías", Icon: "tags"},
		{FeatureID: FeatureZoneManagement, Name: "Zonas", Description: "Gestión de zonas", Icon: "map-marker-alt"},
		{FeatureID: FeatureBannerManagement, Name: "Banners", Description: "Banners e imágenes destacadas", Icon: "images"},
		{FeatureID: FeatureBrandingManagement, Name: "Marca", Description: "Logo, colores y tipografía", Icon: "palette"},
		{FeatureID: FeatureDeviceManagement, Name: "Dispositivos", Description: "Registro y autorización de dispositivos", Icon: "mobile-alt"},
	}
	for i := range seed {
		seed[i].IsEnabled = true
		seed[i].AuthorizedDevices = []string{}
	}
	return seed
}
