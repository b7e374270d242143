package finance

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

type memoryFinanceRepo struct {
	entries []Entry
	nextID  int64
}

func (m *memoryFinanceRepo) InsertEntry(_ context.Context, entry Entry) (Entry, error) {
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memoryFinanceRepo) GetEntry(_ context.Context, id int64) (Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (m *memoryFinanceRepo) ListEntries(_ context.Context, limit, offset int, filters ListFilters) ([]Entry, int, error) {
	var list []Entry
	for _, e := range m.entries {
		if filters.Kind != "" && e.Kind != filters.Kind {
			continue
		}
		if filters.Category != "" && e.Category != filters.Category {
			continue
		}
		list = append(list, e)
	}
	total := len(list)
	if offset >= len(list) {
		return nil, total, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, total, nil
}

func (m *memoryFinanceRepo) MonthlySummary(_ context.Context, from, to time.Time) ([]MonthlySummary, error) {
	byMonth := map[string]*MonthlySummary{}
	for _, e := range m.entries {
		if e.OccurredAt.Before(from) || e.OccurredAt.After(to) {
			continue
		}
		month := e.OccurredAt.Format("2006-01")
		s, ok := byMonth[month]
		if !ok {
			s = &MonthlySummary{Month: month}
			byMonth[month] = s
		}
		switch e.Kind {
		case KindIncome:
			s.Income += e.Amount
		case KindExpense:
			s.Expense += e.Amount
		}
	}
	var list []MonthlySummary
	for _, s := range byMonth {
		s.Net = s.Income - s.Expense
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Month < list[j].Month })
	return list, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func TestRecordEntry(t *testing.T) {
	repo := &memoryFinanceRepo{}
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil)

	entry, err := svc.RecordEntry(context.Background(), EntryInput{
		Kind:     KindIncome,
		Category: "toner-sales",
		Amount:   350,
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.False(t, entry.OccurredAt.IsZero())
	require.Len(t, audit.logs, 1)
	require.Equal(t, "FINANCE_ENTRY", audit.logs[0].Action)
}

func TestRecordEntryValidation(t *testing.T) {
	svc := NewService(&memoryFinanceRepo{}, nil, nil)

	_, err := svc.RecordEntry(context.Background(), EntryInput{Kind: "TRANSFER", Category: "x", Amount: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordEntry(context.Background(), EntryInput{Kind: KindExpense, Amount: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordEntry(context.Background(), EntryInput{Kind: KindExpense, Category: "repairs", Amount: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSummaryGroupsByMonth(t *testing.T) {
	repo := &memoryFinanceRepo{}
	svc := NewService(repo, nil, nil)

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	for _, input := range []EntryInput{
		{Kind: KindIncome, Category: "toner-sales", Amount: 500, OccurredAt: jan},
		{Kind: KindExpense, Category: "purchases", Amount: 200, OccurredAt: jan},
		{Kind: KindIncome, Category: "lease", Amount: 300, OccurredAt: feb},
	} {
		_, err := svc.RecordEntry(context.Background(), input)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), jan.AddDate(0, 0, -14), feb.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	require.Equal(t, "2026-01", summary[0].Month)
	require.Equal(t, 500.0, summary[0].Income)
	require.Equal(t, 200.0, summary[0].Expense)
	require.Equal(t, 300.0, summary[0].Net)
	require.Equal(t, "2026-02", summary[1].Month)
	require.Equal(t, 300.0, summary[1].Net)
}

func TestSummaryRejectsInvertedWindow(t *testing.T) {
	svc := NewService(&memoryFinanceRepo{}, nil, nil)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summary(context.Background(), from, to)
	require.ErrorIs(t, err, ErrValidation)
}
