package history

import (
	"testing"
	"time"
)

type fakeSource struct {
	records map[string]*ExitRecord
	gotDays int
}

func (f *fakeSource) RecentLosingExit(ticker string, lookbackDays int) (*ExitRecord, error) {
	f.gotDays = lookbackDays
	return f.records[ticker], nil
}

func TestFilter_Veto(t *testing.T) {
	src := &fakeSource{records: map[string]*ExitRecord{
		"TATAMOTORS.NS": {
			Ticker:   "TATAMOTORS.NS",
			ExitDate: time.Now().AddDate(0, 0, -2),
			DaysAgo:  2,
			Loss:     -1500,
		},
	}}
	f := NewFilter(src, 7)

	rec, err := f.Veto("TATAMOTORS.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected veto for recently stopped-out ticker")
	}
	if rec.DaysAgo != 2 || rec.Loss != -1500 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if src.gotDays != 7 {
		t.Errorf("expected lookback 7 passed to source, got %d", src.gotDays)
	}

	rec, err = f.Veto("INFY.NS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no veto without exit history, got %+v", rec)
	}
}

func TestFilter_DefaultLookback(t *testing.T) {
	src := &fakeSource{}
	f := NewFilter(src, 0)
	if _, err := f.Veto("ANY.NS"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.gotDays != DefaultLookbackDays {
		t.Errorf("expected default lookback %d, got %d", DefaultLookbackDays, src.gotDays)
	}
}
