package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/repository"

	"github.com/disintegration/imaging"
)

const (
	// TimestampLayout is the timestamp part of evidence filenames.
	TimestampLayout = "20060102_150405"
	// ThumbnailWidth is the width of the gallery thumbnails.
	ThumbnailWidth = 320
	// ThumbnailDir is the subdirectory of the evidence directory holding thumbnails.
	ThumbnailDir = "thumbs"
)

var filenamePattern = regexp.MustCompile(`^attention_(\d{8}_\d{6})_x(\d+)(?:_\d+)?\.jpg$`)

// EvidenceService buffers impact evidence in memory and periodically flushes it
// to disk and to the impact history.
type EvidenceService struct {
	evidenceDir   string
	bufferLimit   int
	images        []dto.BufferedEvidence
	reserved      map[string]bool
	mu            sync.Mutex
	logger        *logger.Logger
	impactRepo    repository.ImpactRepository
	detectionRepo repository.DetectionRepository
}

// NewEvidenceService creates an EvidenceService. The repositories may be nil,
// in which case only files are written.
func NewEvidenceService(evidenceDir string, bufferLimit int, logger *logger.Logger,
	impactRepo repository.ImpactRepository, detectionRepo repository.DetectionRepository) *EvidenceService {
	return &EvidenceService{
		evidenceDir:   evidenceDir,
		bufferLimit:   bufferLimit,
		images:        make([]dto.BufferedEvidence, 0),
		reserved:      make(map[string]bool),
		logger:        logger,
		impactRepo:    impactRepo,
		detectionRepo: detectionRepo,
	}
}

// Dir returns the evidence directory.
func (s *EvidenceService) Dir() string {
	return s.evidenceDir
}

// Run flushes buffered evidence every interval until ctx is cancelled, then
// flushes one last time.
func (s *EvidenceService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushImages()
			return
		case <-ticker.C:
			s.FlushImages()
		}
	}
}

// AddImage buffers one evidence JPEG and returns the filename it will be saved
// under. It fails when the buffer is full.
func (s *EvidenceService) AddImage(evidence dto.BufferedEvidence) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) >= s.bufferLimit {
		return "", fmt.Errorf("evidence buffer full (%d/%d)", len(s.images), s.bufferLimit)
	}
	if len(evidence.Data) == 0 {
		return "", fmt.Errorf("evidence image is empty")
	}
	if evidence.Timestamp.IsZero() {
		evidence.Timestamp = time.Now()
	}

	evidence.Filename = s.uniqueFilename(evidence.Timestamp, evidence.AttentionCount)
	s.reserved[evidence.Filename] = true
	s.images = append(s.images, evidence)

	s.logger.Info("Evidence buffered: %s (%d/%d)", evidence.Filename, len(s.images), s.bufferLimit)
	return evidence.Filename, nil
}

// Pending returns the number of buffered images.
func (s *EvidenceService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// FlushImages writes buffered evidence to disk, creates thumbnails and records
// the impacts. Failures are logged and skipped. It returns the number of files saved.
func (s *EvidenceService) FlushImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) == 0 {
		return 0
	}

	thumbDir := filepath.Join(s.evidenceDir, ThumbnailDir)
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		s.logger.Error("Error creating evidence directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, evidence := range s.images {
		fullpath := filepath.Join(s.evidenceDir, evidence.Filename)

		if err := os.WriteFile(fullpath, evidence.Data, 0644); err != nil {
			s.logger.Error("Error saving evidence %s: %v", evidence.Filename, err)
			continue
		}
		savedCount++

		thumbPath := filepath.Join(thumbDir, evidence.Filename)
		if err := WriteThumbnail(evidence.Data, thumbPath); err != nil {
			s.logger.Warning("Error creating thumbnail for %s: %v", evidence.Filename, err)
			thumbPath = ""
		}

		s.record(evidence, fullpath, thumbPath)
	}

	s.logger.Info("💾 Flushed %d evidence images to %s", savedCount, s.evidenceDir)
	s.images = s.images[:0]
	s.reserved = make(map[string]bool)
	return savedCount
}

// record stores the impact and its person boxes if repositories are available.
func (s *EvidenceService) record(evidence dto.BufferedEvidence, fullpath, thumbPath string) {
	if s.impactRepo == nil {
		return
	}

	impactID, err := s.impactRepo.Insert(&model.Impact{
		SessionID:      evidence.SessionID,
		Filename:       evidence.Filename,
		AttentionCount: evidence.AttentionCount,
		DwellSeconds:   evidence.Dwell.Seconds(),
		Timestamp:      evidence.Timestamp,
		FilePath:       fullpath,
		ThumbnailPath:  thumbPath,
		FileSize:       int64(len(evidence.Data)),
	})
	if err != nil {
		s.logger.Error("Error saving impact to database %s: %v", evidence.Filename, err)
		return
	}

	if s.detectionRepo == nil || len(evidence.Persons) == 0 {
		return
	}

	detections := make([]model.Detection, 0, len(evidence.Persons))
	for _, p := range evidence.Persons {
		detections = append(detections, model.Detection{
			ImpactID:   impactID,
			X:          p.X,
			Y:          p.Y,
			Width:      p.Width,
			Height:     p.Height,
			Confidence: p.Confidence,
			Attention:  p.Attention,
		})
	}
	if err := s.detectionRepo.InsertBatch(detections); err != nil {
		s.logger.Error("Error saving detections to database: %v", err)
	}
}

// uniqueFilename avoids collisions with buffered or saved evidence from the same second.
func (s *EvidenceService) uniqueFilename(ts time.Time, count int) string {
	name := Filename(ts, count)
	base := name[:len(name)-len(".jpg")]
	for i := 1; s.taken(name); i++ {
		name = fmt.Sprintf("%s_%d.jpg", base, i)
	}
	return name
}

func (s *EvidenceService) taken(name string) bool {
	if s.reserved[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(s.evidenceDir, name))
	return err == nil
}

// Filename builds the evidence filename for an impact with count attentive persons.
func Filename(ts time.Time, count int) string {
	return fmt.Sprintf("attention_%s_x%d.jpg", ts.Format(TimestampLayout), count)
}

// ParseFilename recovers the timestamp (local time) and attention count from an evidence filename.
func ParseFilename(name string) (time.Time, int, error) {
	m := filenamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, 0, fmt.Errorf("not an evidence filename: %s", name)
	}

	ts, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid timestamp in %s: %w", name, err)
	}

	count, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid count in %s: %w", name, err)
	}

	return ts, count, nil
}

// WriteThumbnail stores a ThumbnailWidth-wide JPEG copy of the evidence image data at path.
func WriteThumbnail(data []byte, path string) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode evidence: %w", err)
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	return imaging.Save(thumb, path, imaging.JPEGQuality(80))
}
