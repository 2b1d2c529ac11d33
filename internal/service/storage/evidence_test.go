package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/repository/sqlite"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	l, err := logger.New(filepath.Join(t.TempDir(), "logs"))
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 6, 15, 14, 30, 5, 0, time.Local)
	if got := Filename(ts, 3); got != "attention_20250615_143005_x3.jpg" {
		t.Errorf("Filename: got %s", got)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantCount int
		wantErr   bool
	}{
		{"plain", "attention_20250615_143005_x3.jpg", 3, false},
		{"with directory", "/var/evidence/attention_20250615_143005_x1.jpg", 1, false},
		{"collision suffix", "attention_20250615_143005_x2_1.jpg", 2, false},
		{"other file", "person_20250615_143005.jpg", 0, true},
		{"bad date", "attention_20251315_143005_x2.jpg", 0, true},
		{"no count", "attention_20250615_143005.jpg", 0, true},
	}

	want := time.Date(2025, 6, 15, 14, 30, 5, 0, time.Local)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts, count, err := ParseFilename(tc.file)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %s", tc.file)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilename failed: %v", err)
			}
			if count != tc.wantCount {
				t.Errorf("count: got %d, want %d", count, tc.wantCount)
			}
			if !ts.Equal(want) {
				t.Errorf("timestamp: got %v, want %v", ts, want)
			}
		})
	}
}

func TestEvidenceService_BufferLimit(t *testing.T) {
	svc := NewEvidenceService(t.TempDir(), 2, newTestLogger(t), nil, nil)
	data := testJPEG(t, 64, 48)
	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)

	for i := 0; i < 2; i++ {
		if _, err := svc.AddImage(dto.BufferedEvidence{Timestamp: ts, AttentionCount: 1, Data: data}); err != nil {
			t.Fatalf("AddImage %d failed: %v", i, err)
		}
	}
	if _, err := svc.AddImage(dto.BufferedEvidence{Timestamp: ts, AttentionCount: 1, Data: data}); err == nil {
		t.Error("expected buffer full error")
	}
	if svc.Pending() != 2 {
		t.Errorf("pending: got %d, want 2", svc.Pending())
	}
}

func TestEvidenceService_RejectsEmptyImage(t *testing.T) {
	svc := NewEvidenceService(t.TempDir(), 5, newTestLogger(t), nil, nil)
	if _, err := svc.AddImage(dto.BufferedEvidence{AttentionCount: 1}); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestEvidenceService_UniqueFilenames(t *testing.T) {
	svc := NewEvidenceService(t.TempDir(), 5, newTestLogger(t), nil, nil)
	data := testJPEG(t, 64, 48)
	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)

	first, _ := svc.AddImage(dto.BufferedEvidence{Timestamp: ts, AttentionCount: 2, Data: data})
	second, _ := svc.AddImage(dto.BufferedEvidence{Timestamp: ts, AttentionCount: 2, Data: data})

	if first != "attention_20250615_143000_x2.jpg" {
		t.Errorf("first: got %s", first)
	}
	if second != "attention_20250615_143000_x2_1.jpg" {
		t.Errorf("second: got %s", second)
	}
}

func TestEvidenceService_FlushWritesFilesAndRecords(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "evidence")
	db, err := sqlite.New(filepath.Join(t.TempDir(), "kiosk.db"))
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	defer db.Close()

	impacts := sqlite.NewImpactRepository(db)
	detections := sqlite.NewDetectionRepository(db)
	svc := NewEvidenceService(dir, 5, newTestLogger(t), impacts, detections)

	data := testJPEG(t, 640, 480)
	name, err := svc.AddImage(dto.BufferedEvidence{
		Timestamp:      time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local),
		SessionID:      "session-1",
		AttentionCount: 2,
		Dwell:          10200 * time.Millisecond,
		Persons: []dto.PersonBox{
			{X: 180, Y: 100, Width: 280, Height: 250, Confidence: 0.9, Attention: true},
			{X: 10, Y: 20, Width: 100, Height: 200, Confidence: 0.7, Attention: false},
		},
		Data: data,
	})
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}

	if saved := svc.FlushImages(); saved != 1 {
		t.Fatalf("FlushImages: got %d, want 1", saved)
	}
	if svc.Pending() != 0 {
		t.Errorf("buffer should be empty after flush, got %d", svc.Pending())
	}

	written, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("evidence file missing: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Error("evidence file content differs from buffered data")
	}

	thumbFile, err := os.Open(filepath.Join(dir, ThumbnailDir, name))
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	defer thumbFile.Close()
	cfg, err := jpeg.DecodeConfig(thumbFile)
	if err != nil {
		t.Fatalf("thumbnail decode: %v", err)
	}
	if cfg.Width != ThumbnailWidth || cfg.Height != 240 {
		t.Errorf("thumbnail size: got %dx%d, want %dx240", cfg.Width, cfg.Height, ThumbnailWidth)
	}

	impact, err := impacts.GetByFilename(name)
	if err != nil || impact == nil {
		t.Fatalf("impact not recorded: %v", err)
	}
	if impact.AttentionCount != 2 || impact.SessionID != "session-1" || impact.FileSize != int64(len(data)) {
		t.Errorf("unexpected impact: %+v", impact)
	}

	boxes, err := detections.GetByImpactID(impact.ID)
	if err != nil {
		t.Fatalf("GetByImpactID failed: %v", err)
	}
	if len(boxes) != 2 {
		t.Errorf("detections: got %d, want 2", len(boxes))
	}
}

func TestEvidenceService_RunFlushesOnShutdown(t *testing.T) {
	dir := t.TempDir()
	svc := NewEvidenceService(dir, 5, newTestLogger(t), nil, nil)

	name, err := svc.AddImage(dto.BufferedEvidence{AttentionCount: 1, Data: testJPEG(t, 32, 32)})
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("evidence not flushed on shutdown: %v", err)
	}
}
