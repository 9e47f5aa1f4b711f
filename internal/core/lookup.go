package core

// DefaultIcon is shown for categories whose icon name is unknown.
const DefaultIcon = "Circle"

var knownIcons = map[string]struct{}{
	"Utensils": {}, "Car": {}, "ShoppingBag": {}, "Home": {}, "Film": {}, "Heart": {},
	"FileText": {}, "Banknote": {}, "TrendingUp": {}, "Laptop": {}, "Coffee": {}, "Gift": {},
	"Smartphone": {}, "Wifi": {}, "Zap": {}, "Droplet": {}, "Book": {}, "Briefcase": {},
	"CreditCard": {}, "DollarSign": {}, "Music": {}, "Plane": {}, "ShoppingCart": {},
	DefaultIcon: {},
}

// IconOrDefault maps an icon reference to itself when known, DefaultIcon otherwise.
func IconOrDefault(name string) string {
	if _, ok := knownIcons[name]; ok {
		return name
	}
	return DefaultIcon
}

// FindCategory resolves a weak category reference.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FindAccount resolves a weak account reference.
func FindAccount(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// DisplayName picks the name for lang, falling back to English.
func DisplayName(nameEn, nameAr string, lang Language) string {
	if lang == Arabic && nameAr != "" {
		return nameAr
	}
	return nameEn
}

// CategoryName resolves id to a display name, or UnknownName.
func CategoryName(categories []Category, id string, lang Language) string {
	c, ok := FindCategory(categories, id)
	if !ok {
		return UnknownName
	}
	return DisplayName(c.NameEn, c.NameAr, lang)
}

// AccountName resolves id to a display name, or UnknownName.
func AccountName(accounts []Account, id string, lang Language) string {
	a, ok := FindAccount(accounts, id)
	if !ok {
		return UnknownName
	}
	return DisplayName(a.NameEn, a.NameAr, lang)
}
