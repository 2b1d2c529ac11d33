package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"kiosk/internal/config"
	"kiosk/internal/model"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/service/storage"
)

func main() {
	cfg := config.Load()

	evidenceDir := flag.String("evidence", cfg.EvidenceDirectory, "Directory containing evidence images")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	thumbs := flag.Bool("thumbs", true, "Create missing thumbnails")
	flag.Parse()

	fmt.Printf("Migrating evidence from %s to database %s\n", *evidenceDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	impactRepo := sqlite.NewImpactRepository(db)

	files, err := os.ReadDir(*evidenceDir)
	if err != nil {
		log.Fatalf("Failed to read evidence directory: %v", err)
	}

	thumbDir := filepath.Join(*evidenceDir, storage.ThumbnailDir)
	if *thumbs {
		if err := os.MkdirAll(thumbDir, 0755); err != nil {
			log.Fatalf("Failed to create thumbnail directory: %v", err)
		}
	}

	inserted, existing, skipped := 0, 0, 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		timestamp, count, err := storage.ParseFilename(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		if impact, err := impactRepo.GetByFilename(file.Name()); err != nil {
			log.Fatalf("Failed to query %s: %v", file.Name(), err)
		} else if impact != nil {
			existing++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		path := filepath.Join(*evidenceDir, file.Name())
		thumbPath := filepath.Join(thumbDir, file.Name())
		if *thumbs {
			if _, err := os.Stat(thumbPath); os.IsNotExist(err) {
				if err := createThumbnail(path, thumbPath); err != nil {
					log.Printf("⚠️  Failed to create thumbnail for %s: %v", file.Name(), err)
					thumbPath = ""
				}
			}
		} else if _, err := os.Stat(thumbPath); err != nil {
			thumbPath = ""
		}

		_, err = impactRepo.Insert(&model.Impact{
			Filename:       file.Name(),
			AttentionCount: count,
			Timestamp:      timestamp,
			FilePath:       path,
			ThumbnailPath:  thumbPath,
			FileSize:       info.Size(),
		})
		if err != nil {
			log.Printf("⚠️  Failed to insert %s: %v", file.Name(), err)
			skipped++
			continue
		}
		inserted++
	}

	fmt.Printf("✅ Migrated %d impacts (%d already present)\n", inserted, existing)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid format or errors)\n", skipped)
	}

	stats, err := impactRepo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total impacts: %d\n", stats.TotalImpacts)
		fmt.Printf("   Total attention: %d\n", stats.TotalAttention)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Per day:\n")
		for day, n := range stats.PerDay {
			fmt.Printf("      - %s: %d impacts\n", day, n)
		}
	}
}

func createThumbnail(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return storage.WriteThumbnail(data, dst)
}
