package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	English Language = "en"
	Arabic  Language = "ar"
)

// UnknownName is rendered wherever a weak reference cannot be resolved.
const UnknownName = "Unknown"

type (
	TransactionType string

	Language string

	Transaction struct {
		ID           string          `json:"id"`
		Amount       Money           `json:"amount"`
		Date         string          `json:"date"` // ISO timestamp as entered
		CategoryID   string          `json:"categoryId"`
		AccountID    string          `json:"accountId"`
		Note         string          `json:"note,omitempty"`
		Type         TransactionType `json:"type"`
		ReceiptImage string          `json:"receiptImage,omitempty"` // base64 payload
	}

	Category struct {
		ID          string          `json:"id"`
		NameEn      string          `json:"nameEn"`
		NameAr      string          `json:"nameAr"`
		Icon        string          `json:"icon"`
		Color       string          `json:"color"`
		Type        TransactionType `json:"type"`
		BudgetLimit *Money          `json:"budgetLimit,omitempty"`
	}

	Account struct {
		ID     string `json:"id"`
		NameEn string `json:"nameEn"`
		NameAr string `json:"nameAr"`
		Type   string `json:"type"`
	}

	BudgetConfig struct {
		MonthlyLimit   Money   `json:"monthlyLimit"`
		YearlyLimit    Money   `json:"yearlyLimit"`
		AlertThreshold float64 `json:"alertThreshold"` // percentage, 0-100
	}

	Currency struct {
		Code   string `json:"code"`
		Symbol string `json:"symbol"`
		NameEn string `json:"nameEn"`
		NameAr string `json:"nameAr"`
		Flag   string `json:"flag"`
	}

	// AppState is the aggregate root. It is the unit of persistence and of
	// import/export; every mutation produces a new root.
	AppState struct {
		Transactions    []Transaction `json:"transactions"`
		Categories      []Category    `json:"categories"`
		Accounts        []Account     `json:"accounts"`
		Budget          BudgetConfig  `json:"budget"`
		Language        Language      `json:"language"`
		Currency        Currency      `json:"currency"`
		IsAuthenticated bool          `json:"isAuthenticated"`
		Pin             *string       `json:"pin"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyAccount    = errors.New("empty account")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidBudget   = errors.New("invalid budget")
	ErrInvalidLanguage = errors.New("invalid language")
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO forms produced by the web client and by older backups.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t the way new transactions are stored.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Time returns the transaction timestamp; ok is false when the stored date is unusable.
func (t Transaction) Time() (time.Time, bool) {
	return ParseDate(t.Date)
}

// Day returns the calendar date part (YYYY-MM-DD) or the raw value when unparsable.
func (t Transaction) Day() string {
	if ts, ok := t.Time(); ok {
		return ts.Format("2006-01-02")
	}
	if i := strings.Index(t.Date, "T"); i > 0 {
		return t.Date[:i]
	}
	return t.Date
}

func (tt TransactionType) Valid() bool {
	return tt == Income || tt == Expense
}

func (l Language) Valid() bool {
	return l == English || l == Arabic
}

func (t Transaction) Validate() error {
	if !t.Amount.Valid() || !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if _, ok := t.Time(); !ok {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.NameEn) == "" || strings.TrimSpace(c.NameAr) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.BudgetLimit != nil && (!c.BudgetLimit.Valid() || c.BudgetLimit.IsNegative()) {
		return ErrInvalidAmount
	}
	return nil
}

// Limit returns the category's monthly limit, zero meaning unlimited.
func (c Category) Limit() Money {
	if c.BudgetLimit == nil {
		return Money{}
	}
	return *c.BudgetLimit
}

func (b BudgetConfig) Validate() error {
	if !b.MonthlyLimit.Valid() || !b.YearlyLimit.Valid() ||
		b.MonthlyLimit.IsNegative() || b.YearlyLimit.IsNegative() {
		return ErrInvalidBudget
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return ErrInvalidBudget
	}
	return nil
}

// Clone returns a copy of the root whose collections can be modified freely.
func (s AppState) Clone() AppState {
	out := s
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Categories = append([]Category(nil), s.Categories...)
	out.Accounts = append([]Account(nil), s.Accounts...)
	if s.Pin != nil {
		pin := *s.Pin
		out.Pin = &pin
	}
	return out
}

// HasPin reports whether a lock PIN is configured.
func (s AppState) HasPin() bool {
	return s.Pin != nil && *s.Pin != ""
}
