package content

// SchemaVersion is the current data file layout.
//
//	0: initial layout, products carry a single "image" and "size"
//	1: products carry "images" and "sizes" arrays
const SchemaVersion = 1

// migrate upgrades doc to SchemaVersion and reports whether anything
// changed. Legacy fields are kept so older readers still work.
func migrate(doc *document) bool {
	if doc.SchemaVersion >= SchemaVersion {
		return false
	}
	for _, p := range doc.Products {
		MigrateProduct(p)
	}
	doc.SchemaVersion = SchemaVersion
	return true
}

// MigrateProduct fills the plural image and size fields from their legacy
// singular forms when the plural form is missing.
func MigrateProduct(p Record) {
	if _, ok := p["images"]; !ok {
		if img, _ := p["image"].(string); img != "" {
			p["images"] = []any{img}
		}
	}
	if _, ok := p["sizes"]; !ok {
		if size, _ := p["size"].(string); size != "" {
			p["sizes"] = []any{size}
		}
	}
}
