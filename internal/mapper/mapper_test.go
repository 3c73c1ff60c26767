package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/ledger/ledgertest"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

type fixture struct {
	repo     *ledgertest.Repo
	checking int64
	grocery  int64
	usd      int64
	jpy      int64
}

func newFixture() fixture {
	repo := ledgertest.New()
	uncategorized, _ := repo.Snapshot().Uncategorized()
	return fixture{
		repo:     repo,
		checking: repo.AddAccount("Checking", uncategorized),
		grocery:  repo.AddAccount("Grocery Store", uncategorized),
		usd:      repo.AddCurrency("USD", 2),
		jpy:      repo.AddCurrency("JPY", 0),
	}
}

type strategyOpts struct {
	amount   strategy.AmountParsing
	currency strategy.FieldMapping
	target   strategy.FieldMapping
	attrs    []strategy.AttributeMapping
}

func (f fixture) strategy(t *testing.T, o strategyOpts) *strategy.Strategy {
	t.Helper()
	src, err := strategy.NewHardCodedAccount(strategy.FieldSourceAccount, f.checking)
	require.NoError(t, err)
	if o.target == nil {
		o.target, err = strategy.NewAccountLookup(strategy.FieldTargetAccount, strategy.AccountLookup{
			ColumnName: "Payee", CreateIfMissing: true,
		})
		require.NoError(t, err)
	}
	ts, err := strategy.NewDateTimeParsing(strategy.DateTimeParsing{DateColumnName: "Date", DateFormat: "dd/MM/yyyy"})
	require.NoError(t, err)
	desc, err := strategy.NewDirectColumn("Memo")
	require.NoError(t, err)
	if o.amount.Mode == "" {
		o.amount = strategy.AmountParsing{Mode: strategy.SingleColumn, AmountColumnName: "Amount"}
	}
	amt, err := strategy.NewAmountParsing(o.amount)
	require.NoError(t, err)
	if o.currency == nil {
		o.currency, err = strategy.NewHardCodedCurrency(f.usd)
		require.NoError(t, err)
	}
	s, err := strategy.New("test", []string{"Date", "Payee", "Memo", "Amount"},
		[]strategy.FieldMapping{src, o.target, ts, desc, amt, o.currency}, o.attrs)
	require.NoError(t, err)
	return s
}

var headings = []string{"Date", "Payee", "Memo", "Amount", "In", "Out", "Ccy", "Ref"}

func row(i int64, values ...string) Row {
	return Row{Index: i, Values: values}
}

func TestMapRowSingleColumn(t *testing.T) {
	f := newFixture()
	m := New(f.strategy(t, strategyOpts{}), Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "31/12/2024", "Grocery Store", "weekly shop", "-42.10"))
	require.Nil(t, rowErr)
	assert.Equal(t, int64(4210), got.Transfer.Amount.Amount)
	assert.Equal(t, f.checking, got.Transfer.SourceAccountID)
	assert.Equal(t, f.grocery, got.Transfer.TargetAccountID)
	assert.Equal(t, "weekly shop", got.Transfer.Description)
	assert.Equal(t, time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), got.Transfer.Timestamp)
	assert.Empty(t, got.NewAccounts)
}

func TestMapRowFlip(t *testing.T) {
	f := newFixture()
	flipping := f.strategy(t, strategyOpts{amount: strategy.AmountParsing{
		Mode: strategy.SingleColumn, AmountColumnName: "Amount", FlipAccountsOnPositive: true,
	}})
	plain := f.strategy(t, strategyOpts{})
	snap := f.repo.Snapshot()

	tests := []struct {
		name     string
		amount   string
		wantFlip bool
	}{
		{"positive flips", "100.00", true},
		{"negative keeps order", "-100.00", false},
		{"zero keeps order", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := row(1, "01/02/2024", "Grocery Store", "x", tt.amount)
			flipped, rowErr := New(flipping, Columns(headings), snap).MapRow(r)
			require.Nil(t, rowErr)
			base, rowErr := New(plain, Columns(headings), snap).MapRow(r)
			require.Nil(t, rowErr)

			if tt.wantFlip {
				assert.Equal(t, base.Transfer.SourceAccountID, flipped.Transfer.TargetAccountID)
				assert.Equal(t, base.Transfer.TargetAccountID, flipped.Transfer.SourceAccountID)
			} else {
				assert.Equal(t, base.Transfer.SourceAccountID, flipped.Transfer.SourceAccountID)
				assert.Equal(t, base.Transfer.TargetAccountID, flipped.Transfer.TargetAccountID)
			}
			assert.False(t, flipped.Transfer.Amount.Decimal().IsNegative())
		})
	}
}

func TestRawAmountCreditDebit(t *testing.T) {
	am := strategy.AmountParsing{Mode: strategy.CreditDebitColumns, CreditColumnName: "In", DebitColumnName: "Out"}
	idx := newColumnIndex(Columns(headings))

	tests := []struct {
		name   string
		credit string
		debit  string
		want   string
	}{
		{"credit only", "50.00", "", "50"},
		{"debit only", "", "20.00", "-20"},
		{"both", "10", "2.5", "7.5"},
		{"neither", "", " ", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rawAmount(am, idx, row(1, "", "", "", "", tt.credit, tt.debit))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{" 1,234.56 ", "1234.56", false},
		{"$1,234.56", "1234.56", false},
		{"-€ 12.00", "-12", false},
		{"£0.5", "0.5", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestNegateValues(t *testing.T) {
	am := strategy.AmountParsing{Mode: strategy.SingleColumn, AmountColumnName: "Amount", NegateValues: true}
	got, err := rawAmount(am, newColumnIndex(Columns(headings)), row(1, "", "", "", "12.34"))
	require.NoError(t, err)
	assert.Equal(t, "-12.34", got.String())
}

func TestMapRowCurrencyScale(t *testing.T) {
	f := newFixture()
	jpy, err := strategy.NewHardCodedCurrency(f.jpy)
	require.NoError(t, err)
	m := New(f.strategy(t, strategyOpts{currency: jpy}), Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "Checking", "ramen", "1,200"))
	require.Nil(t, rowErr)
	assert.Equal(t, int64(1200), got.Transfer.Amount.Amount)
	assert.Equal(t, "JPY", got.Transfer.Amount.Currency.Code)
}

func TestMapRowCurrencyLookup(t *testing.T) {
	f := newFixture()
	lookup, err := strategy.NewCurrencyLookup("Ccy")
	require.NoError(t, err)
	m := New(f.strategy(t, strategyOpts{currency: lookup}), Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "Checking", "x", "5", "", "", "jpy"))
	require.Nil(t, rowErr)
	assert.Equal(t, f.jpy, got.Transfer.Amount.Currency.ID)

	_, rowErr = m.MapRow(row(2, "01/01/2024", "Checking", "x", "5", "", "", "XYZ"))
	require.NotNil(t, rowErr)
	assert.Equal(t, "Currency not found", rowErr.Message)
	assert.Equal(t, int64(2), rowErr.RowIndex)
}

func TestMapRowErrors(t *testing.T) {
	f := newFixture()
	s := f.strategy(t, strategyOpts{})
	snap := f.repo.Snapshot()

	missingCurrency, err := strategy.NewHardCodedCurrency(9999)
	require.NoError(t, err)
	noCurrency := f.strategy(t, strategyOpts{currency: missingCurrency})

	incomplete, err := strategy.New("incomplete", nil, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		strategy *strategy.Strategy
		row      Row
		want     string
	}{
		{"bad date", s, row(3, "2024-31-12", "Checking", "x", "1"), "Failed to parse timestamp"},
		{"impossible date", s, row(3, "30/02/2024", "Checking", "x", "1"), "Failed to parse timestamp"},
		{"bad amount", s, row(3, "01/01/2024", "Checking", "x", "ten"), "Failed to parse amount"},
		{"unknown currency", noCurrency, row(3, "01/01/2024", "Checking", "x", "1"), "Currency not found"},
		{"blank account", s, row(3, "01/01/2024", " ", "x", "1"), "No account name"},
		{"amount overflows minor units", s, row(3, "31/12/2024", "Checking", "x", "99999999999999999999.99"), "amount out of range"},
		{"missing mapping", incomplete, row(3, "01/01/2024"), "Missing mapping for SOURCE_ACCOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rowErr := New(tt.strategy, Columns(headings), snap).MapRow(tt.row)
			require.NotNil(t, rowErr)
			assert.Equal(t, int64(3), rowErr.RowIndex)
			assert.Contains(t, rowErr.Message, tt.want)
		})
	}
}

func TestMapRowMissingColumn(t *testing.T) {
	f := newFixture()
	m := New(f.strategy(t, strategyOpts{}), Columns([]string{"Date", "Payee", "Memo"}), f.repo.Snapshot())
	_, rowErr := m.MapRow(row(1, "01/01/2024", "Checking", "x"))
	require.NotNil(t, rowErr)
	assert.Contains(t, rowErr.Message, `Column "Amount" not found`)
}

func TestMapRowRegexAccount(t *testing.T) {
	f := newFixture()
	dining := f.repo.AddCategory("Dining")
	regex, err := strategy.NewRegexAccount(strategy.FieldTargetAccount, strategy.RegexAccount{
		ColumnName: "Memo",
		Rules: []strategy.RegexRule{
			{Pattern: "(?i)grocer", AccountName: "Grocery Store"},
			{Pattern: "(?i)cafe|coffee", AccountName: "Coffee"},
		},
		DefaultCategoryID: &dining,
	})
	require.NoError(t, err)
	m := New(f.strategy(t, strategyOpts{target: regex}), Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "", "GROCERY #12", "-3"))
	require.Nil(t, rowErr)
	assert.Equal(t, f.grocery, got.Transfer.TargetAccountID)

	got, rowErr = m.MapRow(row(2, "01/01/2024", "", "Corner Cafe", "-3"))
	require.Nil(t, rowErr)
	assert.Equal(t, NewAccountID, got.Transfer.TargetAccountID)
	require.Len(t, got.NewAccounts, 1)
	assert.Equal(t, NewAccount{Name: "Coffee", CategoryID: dining, Field: strategy.FieldTargetAccount}, got.NewAccounts[0])

	_, rowErr = m.MapRow(row(3, "01/01/2024", "", "Rent", "-3"))
	require.NotNil(t, rowErr)
	assert.Contains(t, rowErr.Message, "No account rule matches")
}

func TestMapRowAttributes(t *testing.T) {
	f := newFixture()
	s := f.strategy(t, strategyOpts{attrs: []strategy.AttributeMapping{
		{ColumnName: "Ref", AttributeTypeName: "reference"},
		{ColumnName: "Absent", AttributeTypeName: "absent"},
	}})
	m := New(s, Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "Checking", "x", "1", "", "", "", " REF-9 "))
	require.Nil(t, rowErr)
	assert.Equal(t, map[string]string{"reference": "REF-9"}, got.Transfer.Attributes)
}

func TestPrepareImport(t *testing.T) {
	f := newFixture()
	m := New(f.strategy(t, strategyOpts{}), Columns(headings), f.repo.Snapshot())

	p := m.PrepareImport([]Row{
		row(1, "01/01/2024", "Grocery Store", "a", "-1"),
		row(2, "02/01/2024", "Landlord", "rent", "-900"),
		row(3, "bad", "Grocery Store", "b", "-1"),
		row(4, "03/01/2024", "Landlord", "rent", "-900"),
		row(5, "04/01/2024", "Employer", "salary", "2000"),
	})

	assert.Equal(t, 5, p.TotalRows)
	assert.Len(t, p.ValidTransfers, 4)
	assert.Equal(t, []int64{1, 2, 4, 5}, p.ValidRows)
	require.Len(t, p.ErrorRows, 1)
	assert.Equal(t, int64(3), p.ErrorRows[0].RowIndex)

	uncategorized, _ := f.repo.Snapshot().Uncategorized()
	assert.Equal(t, []NewAccount{
		{Name: "Landlord", CategoryID: uncategorized, Field: strategy.FieldTargetAccount},
		{Name: "Employer", CategoryID: uncategorized, Field: strategy.FieldTargetAccount},
	}, p.NewAccounts)
	assert.True(t, p.HasPendingAccounts())
	assert.Equal(t, []int64{f.checking, f.grocery}, p.ParticipatingAccountIDs)

	summary := p.ErrorSummary(5)
	assert.Contains(t, summary, "1 of 5 rows failed")
	assert.Contains(t, summary, "row 3: Failed to parse timestamp")
}

func TestPrepareImportRemapAfterCreate(t *testing.T) {
	f := newFixture()
	s := f.strategy(t, strategyOpts{})
	rows := []Row{row(1, "01/01/2024", "Landlord", "rent", "-900")}

	first := New(s, Columns(headings), f.repo.Snapshot()).PrepareImport(rows)
	require.Len(t, first.NewAccounts, 1)
	assert.Equal(t, NewAccountID, first.ValidTransfers[0].TargetAccountID)

	landlord := f.repo.AddAccount(first.NewAccounts[0].Name, first.NewAccounts[0].CategoryID)

	second := New(s, Columns(headings), f.repo.Snapshot()).PrepareImport(rows)
	assert.False(t, second.HasPendingAccounts())
	assert.Equal(t, landlord, second.ValidTransfers[0].TargetAccountID)
}

func TestErrorSummaryTruncates(t *testing.T) {
	p := &Preparation{TotalRows: 3, ErrorRows: []RowError{
		{RowIndex: 1, Message: "a"}, {RowIndex: 2, Message: "b"}, {RowIndex: 3, Message: "c"},
	}}
	got := p.ErrorSummary(1)
	assert.Contains(t, got, "row 1: a")
	assert.NotContains(t, got, "row 2: b")
	assert.Contains(t, got, "and 2 more")
	assert.Equal(t, "no row errors", (&Preparation{}).ErrorSummary(3))
}

func TestMoneyIsAlwaysNonNegative(t *testing.T) {
	f := newFixture()
	m := New(f.strategy(t, strategyOpts{}), Columns(headings), f.repo.Snapshot())
	for _, amount := range []string{"-0.01", "0.01", "-1,000,000.99"} {
		got, rowErr := m.MapRow(row(1, "01/01/2024", "Checking", "x", amount))
		require.Nil(t, rowErr)
		assert.GreaterOrEqual(t, got.Transfer.Amount.Amount, int64(0))
		want, err := ledger.MoneyFromDecimal(decimal.RequireFromString(amount).Abs(), got.Transfer.Amount.Currency)
		require.NoError(t, err)
		assert.Equal(t, want, got.Transfer.Amount)
	}
}

func TestMapRowLookupWithoutCreateFlag(t *testing.T) {
	f := newFixture()
	lookup, err := strategy.NewAccountLookup(strategy.FieldTargetAccount, strategy.AccountLookup{ColumnName: "Payee"})
	require.NoError(t, err)
	m := New(f.strategy(t, strategyOpts{target: lookup}), Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "Brand New Shop", "x", "-9.99"))
	require.Nil(t, rowErr)
	assert.Equal(t, NewAccountID, got.Transfer.TargetAccountID)
	require.Len(t, got.NewAccounts, 1)
	assert.Equal(t, "Brand New Shop", got.NewAccounts[0].Name)
	assert.Equal(t, strategy.FieldTargetAccount, got.NewAccounts[0].Field)
}

func TestMapRowFlipMovesNewAccountSide(t *testing.T) {
	f := newFixture()
	s := f.strategy(t, strategyOpts{amount: strategy.AmountParsing{
		Mode: strategy.SingleColumn, AmountColumnName: "Amount", FlipAccountsOnPositive: true,
	}})
	m := New(s, Columns(headings), f.repo.Snapshot())

	got, rowErr := m.MapRow(row(1, "01/01/2024", "Employer Inc", "salary", "2500"))
	require.Nil(t, rowErr)
	assert.Equal(t, NewAccountID, got.Transfer.SourceAccountID)
	assert.Equal(t, f.checking, got.Transfer.TargetAccountID)
	require.Len(t, got.NewAccounts, 1)
	assert.Equal(t, strategy.FieldSourceAccount, got.NewAccounts[0].Field)
}
