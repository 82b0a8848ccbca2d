package domain

import "encoding/json"

type Category struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Shop struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Owner          string        `json:"owner"`
	ContactNumber  string        `json:"contact_number"`
	Categories     []int         `json:"categories"`
	WorkingHours   *WorkingHours `json:"working_hours,omitempty"`
	City           string        `json:"city"`
	ZoneID         int           `json:"zone_id"`
	CategoriePages []string      `json:"categorie_pages"`
	Img            string        `json:"img"`
}

type Branding struct {
	LogoURL        *string `json:"logo_url,omitempty"`
	PrimaryColor   *string `json:"primary_color,omitempty"`
	SecondaryColor *string `json:"secondary_color,omitempty"`
	AccentColor    *string `json:"accent_color,omitempty"`
	FontFamily     *string `json:"font_family,omitempty"`
	CustomCSS      *string `json:"custom_css,omitempty"`
}

// Document is the whole persisted state of the directory. It is loaded and
// written back as a single JSON file.
type Document struct {
	Shops               []Shop               `json:"shops"`
	Categories          []Category           `json:"categories"`
	Zones               []Zone               `json:"zones"`
	PrimaryBanner       []string             `json:"primary_banner"`
	SecondaryBanner     []string             `json:"secondary_banner"`
	RecommendedImage    string               `json:"recommended_image"`
	OtherBusinesses     string               `json:"other_businesses"`
	Branding            Branding             `json:"branding"`
	DeviceRegistrations []DeviceRegistration `json:"device_registrations"`
	FeatureAccess       []FeatureAccess      `json:"feature_access"`
	LastModified        Timestamp            `json:"last_modified"`
}

// PublicDocument is the directory content served to unauthenticated
// clients. Device and feature registries are never exposed here.
type PublicDocument struct {
	Shops            []Shop     `json:"shops"`
	Categories       []Category `json:"categories"`
	Zones            []Zone     `json:"zones"`
	PrimaryBanner    []string   `json:"primary_banner"`
	SecondaryBanner  []string   `json:"secondary_banner"`
	RecommendedImage string     `json:"recommended_image"`
	OtherBusinesses  string     `json:"other_businesses"`
	Branding         Branding   `json:"branding"`
}

func NewDocument() *Document {
	d := &Document{}
	d.normalize()
	return d
}

func (d *Document) Public() PublicDocument {
	return PublicDocument{
		Shops:            d.Shops,
		Categories:       d.Categories,
		Zones:            d.Zones,
		PrimaryBanner:    d.PrimaryBanner,
		SecondaryBanner:  d.SecondaryBanner,
		RecommendedImage: d.RecommendedImage,
		OtherBusinesses:  d.OtherBusinesses,
		Branding:         d.Branding,
	}
}

// Clone returns a deep copy. The JSON round trip is the only place the full
// nested shape is spelled out, so it doubles as the copy routine.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.normalize()
	return &out, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Document(p)
	d.normalize()
	return nil
}

// normalize replaces nil slices so the file always carries [] rather than null.
func (d *Document) normalize() {
	if d.Shops == nil {
		d.Shops = []Shop{}
	}
	for i := range d.Shops {
		if d.Shops[i].Categories == nil {
			d.Shops[i].Categories = []int{}
		}
		if d.Shops[i].CategoriePages == nil {
			d.Shops[i].CategoriePages = []string{}
		}
	}
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.Zones == nil {
		d.Zones = []Zone{}
	}
	if d.PrimaryBanner == nil {
		d.PrimaryBanner = []string{}
	}
	if d.SecondaryBanner == nil {
		d.SecondaryBanner = []string{}
	}
	if d.DeviceRegistrations == nil {
		d.DeviceRegistrations = []DeviceRegistration{}
	}
	if d.FeatureAccess == nil {
		d.FeatureAccess = []FeatureAccess{}
	}
	for i := range d.FeatureAccess {
		if d.FeatureAccess[i].AuthorizedDevices == nil {
			d.FeatureAccess[i].AuthorizedDevices = []string{}
		}
	}
}

func (d *Document) ShopIndex(id int) int {
	for i := range d.Shops {
		if d.Shops[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) CategoryIndex(id int) int {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) ZoneIndex(id int) int {
	for i := range d.Zones {
		if d.Zones[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) DeviceIndex(uuid string) int {
	for i := range d.DeviceRegistrations {
		if d.DeviceRegistrations[i].UUID == uuid {
			return i
		}
	}
	return -1
}

func (d *Document) FeatureIndex(featureID string) int {
	for i := range d.FeatureAccess {
		if d.FeatureAccess[i].FeatureID == featureID {
			return i
		}
	}
	return -1
}

// Device returns a pointer into the registry, or nil.
func (d *Document) Device(uuid string) *DeviceRegistration {
	if i := d.DeviceIndex(uuid); i >= 0 {
		return &d.DeviceRegistrations[i]
	}
	return nil
}

func (d *Document) Feature(featureID string) *FeatureAccess {
	if i := d.FeatureIndex(featureID); i >= 0 {
		return &d.FeatureAccess[i]
	}
	return nil
}

// ShopsReferencingCategory returns the IDs of shops listing the category.
func (d *Document) ShopsReferencingCategory(categoryID int) []int {
	var ids []int
	for _, s := range d.Shops {
		for _, c := range s.Categories {
			if c == categoryID {
				ids = append(ids, s.ID)
				break
			}
		}
	}
	return ids
}

func (d *Document) ShopsInZone(zoneID int) []int {
	var ids []int
	for _, s := range d.Shops {
		if s.ZoneID == zoneID {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
