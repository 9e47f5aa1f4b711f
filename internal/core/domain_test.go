package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-03-14T09:30:00.000Z", true},
		{"2025-03-14T09:30:00Z", true},
		{"2025-03-14T09:30:00+03:00", true},
		{"2025-03-14T09:30:00", true},
		{"2025-03-14", true},
		{"", false},
		{"yesterday", false},
		{"2025-13-01", false},
	}
	for _, tc := range cases {
		_, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q expected ok=%v", tc.in, tc.ok)
		}
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	in := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	s := FormatDate(in)
	if s != "2025-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected format %s", s)
	}
	got, ok := ParseDate(s)
	if !ok || !got.Equal(in) {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestTransactionDay(t *testing.T) {
	if d := (Transaction{Date: "2025-06-01T10:00:00Z"}).Day(); d != "2025-06-01" {
		t.Fatalf("got %s", d)
	}
	if d := (Transaction{Date: "garbageTstuff"}).Day(); d != "garbage" {
		t.Fatalf("got %s", d)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:         "t1",
		Amount:     NewMoney(10),
		Date:       "2025-01-01T00:00:00Z",
		CategoryID: "1",
		AccountID:  "1",
		Type:       Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*Transaction){
		func(tx *Transaction) { tx.Amount = NewMoney(0) },
		func(tx *Transaction) { tx.Amount = NewMoney(-5) },
		func(tx *Transaction) { tx.Type = "TRANSFER" },
		func(tx *Transaction) { tx.Date = "not a date" },
		func(tx *Transaction) { tx.CategoryID = " " },
		func(tx *Transaction) { tx.AccountID = "" },
	}
	for i, mutate := range bads {
		tx := good
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	neg := NewMoney(-1)
	cases := []struct {
		c  Category
		ok bool
	}{
		{Category{NameEn: "Food", NameAr: "طعام", Type: Expense}, true},
		{Category{NameEn: "", NameAr: "طعام", Type: Expense}, false},
		{Category{NameEn: "Food", NameAr: "طعام", Type: "X"}, false},
		{Category{NameEn: "Food", NameAr: "طعام", Type: Expense, BudgetLimit: &neg}, false},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: ok=%v err=%v", i, tc.ok, err)
		}
	}
}

func TestBudgetConfigValidate(t *testing.T) {
	if err := DefaultBudget().Validate(); err != nil {
		t.Fatalf("default budget invalid: %v", err)
	}
	if err := (BudgetConfig{AlertThreshold: 101}).Validate(); err == nil {
		t.Fatalf("expected error for threshold > 100")
	}
	if err := (BudgetConfig{MonthlyLimit: NewMoney(-1)}).Validate(); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := DefaultState()
	pin := "1234"
	s.Pin = &pin
	c := s.Clone()
	c.Categories[0].NameEn = "changed"
	*c.Pin = "0000"
	if s.Categories[0].NameEn == "changed" || *s.Pin != "1234" {
		t.Fatalf("clone shares memory with its source")
	}
}

func TestLookupFallbacks(t *testing.T) {
	cats := DefaultCategories()
	if n := CategoryName(cats, "1", Arabic); n != "طعام ومطاعم" {
		t.Fatalf("got %s", n)
	}
	if n := CategoryName(cats, "missing", English); n != UnknownName {
		t.Fatalf("got %s", n)
	}
	if n := AccountName(nil, "1", English); n != UnknownName {
		t.Fatalf("got %s", n)
	}
	if IconOrDefault("NoSuchIcon") != DefaultIcon || IconOrDefault("Car") != "Car" {
		t.Fatalf("unexpected icon lookup")
	}
}

func TestCurrencyByCode(t *testing.T) {
	if c, ok := CurrencyByCode("EUR"); !ok || c.Symbol != "€" {
		t.Fatalf("EUR lookup failed: %+v", c)
	}
	if _, ok := CurrencyByCode("XXX"); ok {
		t.Fatalf("unexpected currency")
	}
	if DefaultCurrency().Code != "SAR" {
		t.Fatalf("default currency must be SAR")
	}
}
