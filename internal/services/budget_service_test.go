package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"masarify/internal/amqp"
	"masarify/internal/core"
	"masarify/internal/ledger"
	"masarify/internal/persistence"
	"masarify/internal/storage/memory"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	events []ledger.AlertEvent
}

func (r *recordingNotifier) Notify(_ context.Context, _ core.Language, events []ledger.AlertEvent) error {
	r.events = append(r.events, events...)
	return nil
}

type recordingPublisher struct {
	versions []uint64
	ops      []string
}

func (r *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	r.versions = append(r.versions, msg.Version)
	r.ops = append(r.ops, msg.Operation)
	return nil
}

type fixture struct {
	svc       *BudgetService
	store     *memory.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		store:     memory.New(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewBudgetService(Options{
		Gateway:   persistence.NewGateway(f.store),
		Notifier:  f.notifier,
		Publisher: f.publisher,
		Location:  time.UTC,
		Now:       func() time.Time { return fixedNow },
	})
	if err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return f
}

func expense(amount float64, category string) TransactionInput {
	return TransactionInput{
		Amount:     core.NewMoney(amount),
		Date:       "2025-03-10T09:00:00.000Z",
		CategoryID: category,
		AccountID:  "1",
		Type:       core.Expense,
	}
}

func TestMutationBeforeStart(t *testing.T) {
	store := memory.New()
	svc := NewBudgetService(Options{Gateway: persistence.NewGateway(store)})

	_, err := svc.AddTransaction(context.Background(), expense(10, "1"))
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("nothing should be written before start")
	}
}

type failingStore struct {
	*memory.Store
	failGet bool
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("transient network error")
	}
	return f.Store.Get(ctx, key)
}

func TestStartFailsWhenStoreUnreadable(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	inner.Seed(core.StorageKey, `{"transactions":[{"id":"keep","amount":5,"date":"2025-03-01","categoryId":"1","accountId":"1","type":"EXPENSE"}]}`)
	store := &failingStore{Store: inner, failGet: true}
	svc := NewBudgetService(Options{Gateway: persistence.NewGateway(store), Location: time.UTC})

	if err := svc.Start(ctx); err == nil {
		t.Fatal("expected Start to report the read failure")
	}
	if svc.Started() {
		t.Fatal("service must stay unstarted")
	}
	if _, err := svc.AddTransaction(ctx, expense(10, "1")); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if inner.Writes() != 0 {
		t.Fatal("stored ledger was overwritten")
	}

	store.failGet = false
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start after recovery: %v", err)
	}
	if st := svc.State(); len(st.Transactions) != 1 || st.Transactions[0].ID != "keep" {
		t.Fatalf("stored ledger not loaded: %+v", st.Transactions)
	}
}

func TestAddTransactionPrependsAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.AddTransaction(ctx, expense(10, "1"))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	second, err := f.svc.AddTransaction(ctx, expense(20, "2"))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	txs := f.svc.State().Transactions
	if len(txs) != 2 || txs[0].ID != second.Transaction.ID || txs[1].ID != first.Transaction.ID {
		t.Fatalf("expected newest first, got %+v", txs)
	}
	if f.store.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", f.store.Writes())
	}
	if len(f.publisher.versions) != 2 || f.publisher.versions[1] <= f.publisher.versions[0] {
		t.Fatalf("expected increasing versions, got %v", f.publisher.versions)
	}

	raw, ok, _ := f.store.Get(ctx, core.StorageKey)
	if !ok || len(persistence.Load(raw, ok).Transactions) != 2 {
		t.Fatalf("stored document does not hold both transactions")
	}
}

func TestAddTransactionDefaultsDate(t *testing.T) {
	f := newFixture(t)
	in := expense(5, "1")
	in.Date = ""
	res, err := f.svc.AddTransaction(context.Background(), in)
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if res.Transaction.Day() != "2025-03-15" {
		t.Fatalf("expected the clock's date, got %q", res.Transaction.Date)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   TransactionInput
	}{
		{"zero amount", expense(0, "1")},
		{"no category", expense(10, "")},
		{"bad type", TransactionInput{Amount: core.NewMoney(1), CategoryID: "1", AccountID: "1", Type: "GIFT"}},
		{"bad date", TransactionInput{Amount: core.NewMoney(1), Date: "yesterday", CategoryID: "1", AccountID: "1", Type: core.Income}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AddTransaction(context.Background(), tc.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if f.store.Writes() != 0 {
		t.Fatalf("rejected input must not be saved")
	}
}

func TestGlobalAlertOnAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.SaveSettings(ctx, core.BudgetConfig{MonthlyLimit: core.NewMoney(1000), YearlyLimit: core.NewMoney(12000), AlertThreshold: 80}, nil); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	res, err := f.svc.AddTransaction(ctx, expense(1000, "1"))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Severity != ledger.Exceeded || res.Alerts[0].Scope != ledger.Global {
		t.Fatalf("expected one global exceeded alert, got %+v", res.Alerts)
	}
	if len(f.notifier.events) != 1 {
		t.Fatalf("notifier should receive the alert, got %+v", f.notifier.events)
	}
}

func TestCategoryAlertOnAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	limit := core.NewMoney(200)
	cat, err := f.svc.AddCategory(ctx, CategoryInput{NameEn: "Coffee", Type: core.Expense, BudgetLimit: &limit})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	res, err := f.svc.AddTransaction(ctx, expense(180, cat.ID))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	var found bool
	for _, a := range res.Alerts {
		if a.Scope == ledger.Category && a.CategoryID == cat.ID && a.Severity == ledger.Approaching && a.Percent == 90 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected approaching category alert at 90%%, got %+v", res.Alerts)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UpdateTransaction(ctx, "missing", expense(1, "1")); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	res, _ := f.svc.AddTransaction(ctx, expense(10, "1"))
	id := res.Transaction.ID

	upd := expense(25, "2")
	upd.Note = "taxi"
	if _, err := f.svc.UpdateTransaction(ctx, id, upd); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	tx := f.svc.State().Transactions[0]
	if tx.ID != id || tx.CategoryID != "2" || tx.Note != "taxi" || !tx.Amount.Equal(core.NewMoney(25)) {
		t.Fatalf("update not applied: %+v", tx)
	}

	if err := f.svc.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(f.svc.State().Transactions) != 0 {
		t.Fatalf("transaction not deleted")
	}
	if err := f.svc.DeleteTransaction(ctx, id); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.AddTransaction(ctx, expense(10, "1"))

	if err := f.svc.DeleteCategory(ctx, "1"); !errors.Is(err, persistence.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := f.svc.DeleteCategory(ctx, "2"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, ok := core.FindCategory(f.svc.State().Categories, "2"); ok {
		t.Fatal("category 2 should be gone")
	}
	if err := f.svc.DeleteCategory(ctx, "2"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestSetCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, "XYZ"); !errors.Is(err, persistence.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	cur, err := f.svc.SetCurrency(ctx, "usd")
	if err != nil || cur.Code != "USD" || f.svc.State().Currency.Code != "USD" {
		t.Fatalf("SetCurrency: %v %+v", err, cur)
	}

	f.svc.AddTransaction(ctx, expense(10, "1"))
	if _, err := f.svc.SetCurrency(ctx, "EUR"); !errors.Is(err, persistence.ErrCurrencyLocked) {
		t.Fatalf("expected ErrCurrencyLocked, got %v", err)
	}
}

func TestPinLockUnlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.Unlock(ctx, "anything"); err != nil {
		t.Fatalf("unlock without pin should succeed: %v", err)
	}

	pin := "1234"
	if err := f.svc.SaveSettings(ctx, core.DefaultBudget(), &pin); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	stored := f.svc.State().Pin
	if stored == nil || !strings.HasPrefix(*stored, "$2") {
		t.Fatalf("pin should be stored hashed, got %v", stored)
	}
	if f.svc.Locked() {
		t.Fatal("setting a pin keeps the session open")
	}

	f.svc.Lock(ctx)
	if !f.svc.Locked() {
		t.Fatal("expected locked")
	}
	if err := f.svc.Unlock(ctx, "0000"); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}
	if err := f.svc.Unlock(ctx, "1234"); err != nil || f.svc.Locked() {
		t.Fatalf("unlock failed: %v", err)
	}

	empty := ""
	f.svc.SaveSettings(ctx, core.DefaultBudget(), &empty)
	if f.svc.State().HasPin() {
		t.Fatal("empty pin should remove it")
	}
}

func TestLegacyPinIsUpgraded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	backup := `{"transactions":[],"categories":[],"pin":"4321"}`
	if _, err := f.svc.ImportSnapshot(ctx, backup); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	f.svc.Lock(ctx)
	if err := f.svc.Unlock(ctx, "4321"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if p := f.svc.State().Pin; p == nil || *p == "4321" || !strings.HasPrefix(*p, "$2") {
		t.Fatalf("legacy pin should be replaced by a hash, got %v", p)
	}
}

func TestImportSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.AddTransaction(ctx, expense(10, "1"))

	if _, err := f.svc.ImportSnapshot(ctx, `{"transactions":{}}`); !errors.Is(err, persistence.ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
	if len(f.svc.State().Transactions) != 1 {
		t.Fatal("rejected import must leave state untouched")
	}

	st, err := f.svc.ImportSnapshot(ctx, `{"transactions":[],"categories":[{"id":"x","nameEn":"X","nameAr":"X","type":"EXPENSE"}],"language":"ar"}`)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if !st.IsAuthenticated || st.Language != core.Arabic || len(st.Categories) != 1 {
		t.Fatalf("unexpected imported state %+v", st)
	}

	history, err := f.svc.History(ctx, 10)
	if err != nil || len(history) != 1 || history[0].Reason != "import" {
		t.Fatalf("expected one archived snapshot, got %v %+v", err, history)
	}
	if !strings.Contains(history[0].Value, `"transactions":[{`) {
		t.Fatal("archived snapshot should hold the replaced ledger")
	}
}

func TestSearchTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coffee := expense(12.5, "1")
	coffee.Note = "Morning Coffee"
	f.svc.AddTransaction(ctx, coffee)
	f.svc.AddTransaction(ctx, expense(300, "2"))
	salary := TransactionInput{Amount: core.NewMoney(5000), Date: "2025-03-01", CategoryID: "5", AccountID: "2", Type: core.Income}
	f.svc.AddTransaction(ctx, salary)

	cases := []struct {
		name string
		q    TransactionQuery
		want int
	}{
		{"all", TransactionQuery{}, 3},
		{"note", TransactionQuery{Text: "coffee"}, 1},
		{"amount", TransactionQuery{Text: "300"}, 1},
		{"type", TransactionQuery{Type: core.Income}, 1},
		{"category", TransactionQuery{CategoryID: "1"}, 1},
		{"limit", TransactionQuery{Limit: 2}, 2},
		{"none", TransactionQuery{Text: "rent"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.svc.SearchTransactions(tc.q); len(got) != tc.want {
				t.Fatalf("got %d results, want %d", len(got), tc.want)
			}
		})
	}
}

func TestDashboardAndBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.AddTransaction(ctx, expense(300, "1"))
	f.svc.AddTransaction(ctx, expense(100, "2"))
	f.svc.AddTransaction(ctx, TransactionInput{Amount: core.NewMoney(1000), Date: "2025-03-01", CategoryID: "5", AccountID: "2", Type: core.Income})

	d := f.svc.Dashboard(time.Time{})
	if d.Balance.String() != "600" {
		t.Fatalf("balance = %s, want 600", d.Balance)
	}
	if d.Totals.MonthlyExpense.String() != "400" || d.Totals.MonthlyCount != 3 {
		t.Fatalf("unexpected totals %+v", d.Totals)
	}
	if d.Monthly.Status != ledger.Healthy || d.Monthly.Percent != 8 {
		t.Fatalf("unexpected monthly progress %+v", d.Monthly)
	}
	if len(d.Recent) != 3 {
		t.Fatalf("expected 3 recent transactions, got %d", len(d.Recent))
	}

	b := f.svc.Breakdown(nil)
	if len(b) != 2 || b[0].CategoryID != "1" || b[0].Share != 75 || b[1].Share != 25 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if b[0].Name != "Food & Dining" {
		t.Fatalf("unexpected name %q", b[0].Name)
	}

	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := f.svc.Breakdown(&april); len(got) != 0 {
		t.Fatalf("expected empty April breakdown, got %+v", got)
	}
}

func TestAskWithoutKey(t *testing.T) {
	f := newFixture(t)
	msg := f.svc.Ask(context.Background(), "How am I doing?")
	if !strings.Contains(msg.Text, "GEMINI_API_KEY") {
		t.Fatalf("expected missing key message, got %q", msg.Text)
	}
	msgs := f.svc.Messages()
	if len(msgs) != 2 || msgs[0].Text != "How am I doing?" {
		t.Fatalf("unexpected conversation %+v", msgs)
	}
}

func TestVerifyPin(t *testing.T) {
	hash, err := HashPin("2468")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		stored, pin  string
		ok, isLegacy bool
	}{
		{hash, "2468", true, false},
		{hash, "1111", false, false},
		{"2468", "2468", true, true},
		{"2468", "246", false, true},
	}
	for _, tc := range cases {
		ok, legacy := VerifyPin(tc.stored, tc.pin)
		if ok != tc.ok || legacy != tc.isLegacy {
			t.Errorf("VerifyPin(%q,%q) = %v,%v want %v,%v", tc.stored, tc.pin, ok, legacy, tc.ok, tc.isLegacy)
		}
	}
}
