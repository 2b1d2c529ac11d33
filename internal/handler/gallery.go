package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/repository"
	"kiosk/internal/service/storage"
)

// GetImpactsHandler returns a filtered, paginated list of impacts from the database.
func GetImpactsHandler(cfg *config.Config, logger *logger.Logger,
	impactRepo repository.ImpactRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &dto.ImpactFilters{
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			MinCount:   atoiDefault(q.Get("minCount"), 0),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		impacts, err := impactRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying impacts from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := impactRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting impacts: %v", err)
			totalCount = len(impacts)
		}

		var totalSize int64
		infos := make([]dto.ImpactInfo, 0, len(impacts))
		for _, impact := range impacts {
			totalSize += impact.FileSize

			persons := []dto.PersonBox{}
			if detectionRepo != nil {
				detections, err := detectionRepo.GetByImpactID(impact.ID)
				if err != nil {
					logger.Error("Error getting detections for impact %d: %v", impact.ID, err)
				}
				for _, d := range detections {
					persons = append(persons, dto.PersonBox{
						X: d.X, Y: d.Y, Width: d.Width, Height: d.Height,
						Confidence: d.Confidence, Attention: d.Attention,
					})
				}
			}

			thumbnail := ""
			if impact.ThumbnailPath != "" {
				thumbnail = impact.Filename
			}

			infos = append(infos, dto.ImpactInfo{
				Name:           impact.Filename,
				Thumbnail:      thumbnail,
				Date:           impact.Timestamp,
				TimeOfDay:      impact.Timestamp,
				AttentionCount: impact.AttentionCount,
				DwellSeconds:   impact.DwellSeconds,
				SessionID:      impact.SessionID,
				Persons:        persons,
			})
		}

		data := dto.ImpactsData{
			Impacts:     infos,
			EvidenceDir: cfg.EvidenceDirectory,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		writeJSON(w, logger, data)
	}
}

// ImpactStatsHandler returns aggregated impact statistics.
func ImpactStatsHandler(logger *logger.Logger, impactRepo repository.ImpactRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := impactRepo.GetStats()
		if err != nil {
			logger.Error("Error computing impact stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, stats)
	}
}

// DeleteEvidenceHandler removes an evidence image, its thumbnail and its impact row.
func DeleteEvidenceHandler(cfg *config.Config, logger *logger.Logger,
	impactRepo repository.ImpactRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := filepath.Base(r.URL.Query().Get("filename"))
		if filename == "." || filename == "/" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}

		for _, path := range []string{
			filepath.Join(cfg.EvidenceDirectory, filename),
			filepath.Join(cfg.EvidenceDirectory, storage.ThumbnailDir, filename),
		} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete file %s: %v", path, err)
			}
		}

		if impactRepo != nil {
			if err := impactRepo.DeleteByFilename(filename); err != nil {
				logger.Error("Failed to delete from database: %v", err)
			}
		}

		logger.Info("Deleted evidence: %s", filename)
		writeJSON(w, logger, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearEvidenceHandler deletes every evidence file and thumbnail and clears the impact history.
func ClearEvidenceHandler(cfg *config.Config, logger *logger.Logger,
	impactRepo repository.ImpactRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, dir := range []string{cfg.EvidenceDirectory, filepath.Join(cfg.EvidenceDirectory, storage.ThumbnailDir)} {
			files, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				logger.Error("Error reading evidence directory: %v", err)
				http.Error(w, "Unable to read evidence directory", http.StatusInternalServerError)
				return
			}

			for _, file := range files {
				if file.IsDir() {
					continue
				}
				if err := os.Remove(filepath.Join(dir, file.Name())); err != nil {
					logger.Error("Error deleting file %s: %v", file.Name(), err)
				}
			}
		}

		if impactRepo != nil {
			if err := impactRepo.DeleteAll(); err != nil {
				logger.Error("Error clearing database: %v", err)
			}
		}

		logger.Info("All evidence cleared from directory: %s", cfg.EvidenceDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewEvidenceHandler serves an evidence image named by the "image" query
// parameter, or its thumbnail when "thumb" is set.
func ViewEvidenceHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		image := filepath.Base(q.Get("image"))
		if image == "." || image == "/" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}

		dir := cfg.EvidenceDirectory
		if q.Get("thumb") != "" {
			dir = filepath.Join(dir, storage.ThumbnailDir)
		}
		http.ServeFile(w, r, filepath.Join(dir, image))
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
