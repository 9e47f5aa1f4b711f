package core

// StorageKey is the single key under which the whole AppState is persisted.
const StorageKey = "masarify_data_v2"

// SupportedCurrencies lists the currencies a user may pick; the first is the default.
var SupportedCurrencies = []Currency{
	{Code: "SAR", Symbol: "﷼", NameEn: "Saudi Riyal", NameAr: "ريال سعودي", Flag: "🇸🇦"},
	{Code: "USD", Symbol: "$", NameEn: "US Dollar", NameAr: "دولار أمريكي", Flag: "🇺🇸"},
	{Code: "AED", Symbol: "د.إ", NameEn: "UAE Dirham", NameAr: "درهم إماراتي", Flag: "🇦🇪"},
	{Code: "KWD", Symbol: "د.ك", NameEn: "Kuwaiti Dinar", NameAr: "دينار كويتي", Flag: "🇰🇼"},
	{Code: "QAR", Symbol: "ر.ق", NameEn: "Qatari Riyal", NameAr: "ريال قطري", Flag: "🇶🇦"},
	{Code: "EGP", Symbol: "£", NameEn: "Egyptian Pound", NameAr: "جنيه مصري", Flag: "🇪🇬"},
	{Code: "JOD", Symbol: "د.ا", NameEn: "Jordanian Dinar", NameAr: "دينار أردني", Flag: "🇯🇴"},
	{Code: "EUR", Symbol: "€", NameEn: "Euro", NameAr: "يورو", Flag: "🇪🇺"},
}

// DefaultCurrency is used for fresh installs and malformed currency records.
func DefaultCurrency() Currency {
	return SupportedCurrencies[0]
}

// CurrencyByCode looks up a supported currency.
func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		MonthlyLimit:   NewMoney(5000),
		YearlyLimit:    NewMoney(60000),
		AlertThreshold: 80,
	}
}

func DefaultCategories() []Category {
	zero := func() *Money { m := NewMoney(0); return &m }
	return []Category{
		{ID: "1", NameEn: "Food & Dining", NameAr: "طعام ومطاعم", Icon: "Utensils", Color: "#e11d48", Type: Expense, BudgetLimit: zero()},
		{ID: "2", NameEn: "Transportation", NameAr: "نقل ومواصلات", Icon: "Car", Color: "#4f46e5", Type: Expense, BudgetLimit: zero()},
		{ID: "3", NameEn: "Shopping", NameAr: "تسوق", Icon: "ShoppingBag", Color: "#8b5cf6", Type: Expense, BudgetLimit: zero()},
		{ID: "4", NameEn: "Housing", NameAr: "سكن", Icon: "Home", Color: "#059669", Type: Expense, BudgetLimit: zero()},
		{ID: "6", NameEn: "Entertainment", NameAr: "ترفيه", Icon: "Film", Color: "#d97706", Type: Expense, BudgetLimit: zero()},
		{ID: "7", NameEn: "Health", NameAr: "صحة", Icon: "Heart", Color: "#ec4899", Type: Expense, BudgetLimit: zero()},
		{ID: "9", NameEn: "Bills", NameAr: "فواتير", Icon: "FileText", Color: "#64748b", Type: Expense, BudgetLimit: zero()},

		{ID: "5", NameEn: "Salary", NameAr: "راتب", Icon: "Banknote", Color: "#10b981", Type: Income},
		{ID: "8", NameEn: "Investment", NameAr: "استثمار", Icon: "TrendingUp", Color: "#3b82f6", Type: Income},
		{ID: "10", NameEn: "Freelance", NameAr: "عمل حر", Icon: "Laptop", Color: "#6366f1", Type: Income},
	}
}

func DefaultAccounts() []Account {
	return []Account{
		{ID: "1", NameEn: "Cash", NameAr: "نقد", Type: "Cash"},
		{ID: "2", NameEn: "Bank Account", NameAr: "حساب بنكي", Type: "Bank"},
		{ID: "3", NameEn: "Credit Card", NameAr: "بطاقة ائتمان", Type: "Credit"},
	}
}

// DefaultState is the state of a fresh install: empty ledger, locked, no PIN.
func DefaultState() AppState {
	return AppState{
		Transactions:    []Transaction{},
		Categories:      DefaultCategories(),
		Accounts:        DefaultAccounts(),
		Budget:          DefaultBudget(),
		Language:        English,
		Currency:        DefaultCurrency(),
		IsAuthenticated: false,
		Pin:             nil,
	}
}
