package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/store-auditor/backend/audit"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	t.Run("RecordAudit", func(t *testing.T) {
		storage.RecordAudit("https://a.example", audit.TierStructured, time.Second)
		storage.RecordAudit("https://a.example", audit.TierNeutralFallback, time.Second)
		storage.RecordAudit("https://a.example", audit.TierNeutralFallback, time.Second)
		storage.RecordAudit("https://a.example", audit.TierUnparsed, time.Second)
		storage.RecordFailure("https://a.example", time.Second)

		stats := storage.GetCurrentStats()
		if stats.Structured != 1 {
			t.Errorf("Expected 1 structured audit, got %d", stats.Structured)
		}
		if stats.NeutralFallback != 2 {
			t.Errorf("Expected 2 neutral fallbacks, got %d", stats.NeutralFallback)
		}
		if stats.Unparsed != 1 {
			t.Errorf("Expected 1 unparsed audit, got %d", stats.Unparsed)
		}
		if stats.Failed != 1 {
			t.Errorf("Expected 1 failure, got %d", stats.Failed)
		}
		if stats.Total() != 5 {
			t.Errorf("Expected 5 audits in total, got %d", stats.Total())
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.save(); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		storage2, err := NewStorage(tempDir, nil)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		if stats.Structured != 1 {
			t.Errorf("Expected 1 structured audit after reload, got %d", stats.Structured)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		oldMonth := first.AddDate(0, -2, 0).Format("2006-01")
		lastMonth := first.AddDate(0, -1, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Structured: 100}
		storage.stats[lastMonth] = &MonthlyStats{Structured: 10}
		storage.mutex.Unlock()

		storage.Cleanup(2)

		if _, exists := storage.GetMonthlyStats(oldMonth); exists {
			t.Error("Old stats should have been cleaned up")
		}
		if _, exists := storage.GetMonthlyStats(lastMonth); !exists {
			t.Error("Last month should have been retained")
		}

		months := storage.GetAllMonths()
		if len(months) != 2 || months[0] != time.Now().Format("2006-01") {
			t.Errorf("Expected current month first, got %v", months)
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		if err := storage.save(); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}

		// File should be relatively small (< 1KB for this test data)
		if info.Size() > 1024 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.RecordAudit("https://b.example", audit.TierStructured, 0)
					storage.RecordFailure("https://b.example", 0)
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		after := storage.GetCurrentStats()
		if after.Structured-before.Structured != 1000 {
			t.Errorf("Expected 1000 structured audits, got %d", after.Structured-before.Structured)
		}
		if after.Failed-before.Failed != 1000 {
			t.Errorf("Expected 1000 failures, got %d", after.Failed-before.Failed)
		}
	})
}

func TestStorageShutdownFlushes(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	storage.RecordAudit("https://a.example", audit.TierUnparsed, 0)

	if err := storage.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	// A second shutdown is a no-op
	if err := storage.Shutdown(); err != nil {
		t.Fatalf("Second shutdown failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "stats.json")); err != nil {
		t.Fatalf("Expected stats file after shutdown: %v", err)
	}
}
