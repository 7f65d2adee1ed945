package register

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
)

type mockRepo struct {
	entries []*Entry
	nextSeq int64
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	e.ID = uuid.New()
	m.nextSeq++
	e.Seq = m.nextSeq
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) List(_ context.Context, productID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	var result []*Entry
	for _, e := range m.entries {
		if productID == uuid.Nil || e.ProductID == productID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Seq > result[j].Seq
	})
	return result, len(result), nil
}

func validEntry() *Entry {
	return &Entry{
		ProductID:   uuid.New(),
		ProductName: "Morphine Sulphate 10mg",
		PatientName: "Jane Wanjiku",
		Quantity:    10,
		DispensedBy: "Cashier Otieno",
		Pharmacist:  "Pharm. Njeri",
	}
}

func TestRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	e := validEntry()
	if err := svc.Record(context.Background(), e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.Date.IsZero() {
		t.Error("expected date to default to now")
	}
}

func TestRecord_Validation(t *testing.T) {
	svc := NewService(&mockRepo{})

	tests := []struct {
		name string
		mod  func(e *Entry)
	}{
		{"missing product name", func(e *Entry) { e.ProductName = "" }},
		{"missing patient name", func(e *Entry) { e.PatientName = "" }},
		{"zero quantity", func(e *Entry) { e.Quantity = 0 }},
		{"missing pharmacist", func(e *Entry) { e.Pharmacist = "" }},
		{"missing dispenser", func(e *Entry) { e.DispensedBy = "" }},
	}
	for _, tt := range tests {
		e := validEntry()
		tt.mod(e)
		if err := svc.Record(context.Background(), e); !apperr.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tt.name, err)
		}
	}
}

func TestList_NewestFirst(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	old := validEntry()
	old.Date = time.Now().Add(-time.Hour)
	recent := validEntry()
	recent.Date = time.Now()

	for _, e := range []*Entry{old, recent} {
		if err := svc.Record(context.Background(), e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, total, err := svc.List(context.Background(), uuid.Nil, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if !entries[0].Date.After(entries[1].Date) {
		t.Error("entries must come back newest first")
	}
}

func TestList_SameDateReverseInsertionOrder(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	// The lines of one sale all share the finalization timestamp.
	when := time.Now()
	first := validEntry()
	first.ProductName = "Morphine Sulphate 10mg"
	first.Date = when
	second := validEntry()
	second.ProductName = "Pethidine 50mg"
	second.Date = when

	for _, e := range []*Entry{first, second} {
		if err := svc.Record(context.Background(), e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, _, err := svc.List(context.Background(), uuid.Nil, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].ProductName != "Pethidine 50mg" || entries[1].ProductName != "Morphine Sulphate 10mg" {
		t.Errorf("same-date entries must list last-recorded first, got %q then %q",
			entries[0].ProductName, entries[1].ProductName)
	}
	if entries[0].Seq <= entries[1].Seq {
		t.Error("sequence must increase with insertion order")
	}
}
