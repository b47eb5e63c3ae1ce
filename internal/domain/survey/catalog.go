package survey

import (
	"fmt"
	"strings"
)

// Category groups the question labels of one facility area.
type Category struct {
	Name      string   `json:"name" yaml:"name"`
	Questions []string `json:"questions" yaml:"questions"`
}

// Catalog is the ordered facility-category taxonomy of one survey revision.
type Catalog struct {
	categories []Category
	byName     map[string]int
}

// NewCatalog validates and freezes the category list.
func NewCatalog(categories []Category) (Catalog, error) {
	c := Catalog{
		categories: make([]Category, 0, len(categories)),
		byName:     make(map[string]int, len(categories)),
	}
	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return Catalog{}, fmt.Errorf("catalog category name cannot be empty")
		}
		if _, dup := c.byName[name]; dup {
			return Catalog{}, fmt.Errorf("catalog category %q declared twice", name)
		}
		seen := make(map[string]struct{}, len(cat.Questions))
		questions := make([]string, 0, len(cat.Questions))
		for _, q := range cat.Questions {
			if strings.TrimSpace(q) == "" {
				return Catalog{}, fmt.Errorf("catalog category %q has an empty question", name)
			}
			if _, dup := seen[q]; dup {
				return Catalog{}, fmt.Errorf("catalog category %q repeats question %q", name, q)
			}
			seen[q] = struct{}{}
			questions = append(questions, q)
		}
		c.byName[name] = len(c.categories)
		c.categories = append(c.categories, Category{Name: name, Questions: questions})
	}
	return c, nil
}

// Categories returns the categories in catalog order.
func (c Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Names returns the category names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.Name
	}
	return out
}

// Category looks up a category by name.
func (c Catalog) Category(name string) (Category, bool) {
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Category{}, false
	}
	return c.categories[idx], true
}

// Labels flattens every question label in catalog order.
func (c Catalog) Labels() []string {
	out := make([]string, 0)
	for _, cat := range c.categories {
		out = append(out, cat.Questions...)
	}
	return out
}

// Len reports the number of categories.
func (c Catalog) Len() int {
	return len(c.categories)
}

// DefaultCatalog is the campus facility questionnaire.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultCategories())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultCategories() []Category {
	return []Category{
		{Name: "Ruang Kelas & Belajar", Questions: []string{
			"Ruang kelas/kerja bersih & tertata.", "Meja & kursi nyaman.", "Pencahayaan cukup.",
			"Ventilasi/AC berfungsi dengan baik.", "Papan tulis & spidol/ alat tulis memadai.",
			"Proyektor & alat ajar berfungsi.", "Terdapat colokan listrik", "Ruang cukup luas",
			"Kebisingan dari luar tidak mengganggu.", "Saya nyaman belajar/mengajar/kerja",
		}},
		{Name: "Perpustakaan", Questions: []string{
			"Apakah koleksi buku perpustakaan cukup lengkap ?", "Suasana perpustakaan kondusif",
			"Tempat duduk perpustakaan memadai", "Sistem peminjaman buku efisien",
			"Apakah petugas perpustakaan ramah", "Tersedia internet/komputer", "Akses jurnal digital mudah",
		}},
		{Name: "Teknologi & Internet", Questions: []string{
			"Wi\u2011Fi mudah diakses", "Kecepatan internet stabil", "Sistem akademik mudah digunakan",
			"Bantuan tim IT responsif.",
		}},
		{Name: "Kebersihan & Kesehatan", Questions: []string{
			"Tempat sampah tersedia dan memadai", "Toilet bersih", "Pembersihan dilakukan secara rutin",
			"Tersedia P3K", "Lingkungan higienis dan bersih",
		}},
		{Name: "Kantin", Questions: []string{
			"Menu cukup bervariasi.", "Harga terjangkau.", "Kualitas makanan baik",
			"Area makan nyaman", "Pelayanan ramah & cepat.",
		}},
		{Name: "Keamanan & Parkir", Questions: []string{
			"Sistem keamanan efektif.", "Petugas ramah & membantu", "Parkir memadai & aman",
			"Penerangan cukup", "Tidak ada area rawan.", "Akses masuk terkontrol",
			"Evakuasi & jalur Darurat jelas",
		}},
	}
}
