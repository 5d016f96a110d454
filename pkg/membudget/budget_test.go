package membudget

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBudgetBasic(t *testing.T) {
	budget := New(Config{TotalBytes: 1000, Source: BudgetSourceCLI})

	if budget.Total() != 1000 {
		t.Errorf("Total() = %d, want 1000", budget.Total())
	}
	if budget.Source() != BudgetSourceCLI {
		t.Errorf("Source() = %s, want %s", budget.Source(), BudgetSourceCLI)
	}

	if !budget.TryReserve(600) {
		t.Fatal("TryReserve(600) failed")
	}
	if budget.TryReserve(500) {
		t.Error("TryReserve(500) succeeded with 400 available")
	}
	if budget.Available() != 400 {
		t.Errorf("Available() = %d, want 400", budget.Available())
	}

	stats := budget.Stats()
	if stats.InUseBytes != 600 || stats.AvailableBytes != 400 || stats.UsagePercent != 60 {
		t.Errorf("Stats() = %+v", stats)
	}

	budget.Release(1000)
	if budget.InUse() != 0 {
		t.Errorf("InUse() after over-release = %d, want 0", budget.InUse())
	}
}

func TestReserveExceedsBudget(t *testing.T) {
	budget := New(Config{TotalBytes: 100})
	if err := budget.Reserve(101); !errors.Is(err, ErrExceedsBudget) {
		t.Errorf("Reserve(101) = %v, want ErrExceedsBudget", err)
	}
}

func TestReserveWaitsForRelease(t *testing.T) {
	budget := New(Config{TotalBytes: 100})
	if err := budget.Reserve(80); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	reserved := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := budget.Reserve(50); err != nil {
			t.Errorf("Reserve(50): %v", err)
		}
		close(reserved)
	}()

	select {
	case <-reserved:
		t.Fatal("Reserve(50) returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	budget.Release(80)
	wg.Wait()
	if budget.InUse() != 50 {
		t.Errorf("InUse() = %d, want 50", budget.InUse())
	}
}

func TestNewFromSystemRAM(t *testing.T) {
	budget := NewFromSystemRAM()

	if budget.Total() == 0 {
		t.Error("Total() = 0")
	}
	if budget.Source() != BudgetSourceAuto50Pct && budget.Source() != BudgetSourceDefault {
		t.Errorf("Source = %s, want auto-50pct or default", budget.Source())
	}
}

func TestParseHumanSize(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"100B", 100, false},
		{"1KB", 1000, false},
		{"1KiB", 1024, false},
		{"1K", 1024, false},
		{"1MB", 1000000, false},
		{"1MiB", 1024 * 1024, false},
		{"1M", 1024 * 1024, false},
		{"1GB", 1000000000, false},
		{"1GiB", 1024 * 1024 * 1024, false},
		{"4GiB", 4 * 1024 * 1024 * 1024, false},
		{"0.5GiB", 512 * 1024 * 1024, false},
		{" 2 GiB ", 2 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"XYZ", 0, true},
		{"100XB", 0, true},
		{"1.2.3G", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseHumanSize(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHumanSize(%q) should error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHumanSize(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseHumanSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
