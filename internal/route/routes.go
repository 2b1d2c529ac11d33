package route

import (
	"net/http"
	"os"
	"path/filepath"

	"kiosk/internal/config"
	"kiosk/internal/handler"
	"kiosk/internal/logger"
	"kiosk/internal/middleware"
	"kiosk/internal/repository"
)

// StaticDir holds the operator web pages.
const StaticDir = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDir, filepath.Clean(path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(status handler.StatusSource, hub handler.ViewerHub, cfg *config.Config, l *logger.Logger,
	impactRepo repository.ImpactRepository, detectionRepo repository.DetectionRepository) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir))))

	// Live kiosk
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, l))
	mux.HandleFunc("/api/status", handler.StatusHandler(status, l))

	// Impact history and evidence
	mux.HandleFunc("/api/impacts", handler.GetImpactsHandler(cfg, l, impactRepo, detectionRepo))
	mux.HandleFunc("/api/impacts/stats", handler.ImpactStatsHandler(l, impactRepo))
	mux.HandleFunc("/api/evidence/view", handler.ViewEvidenceHandler(cfg))
	mux.HandleFunc("/api/evidence/delete", handler.DeleteEvidenceHandler(cfg, l, impactRepo))
	mux.HandleFunc("/api/evidence/clear", handler.ClearEvidenceHandler(cfg, l, impactRepo))

	// Log endpoints
	for name, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(l, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(l, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, l))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /impacts -> /static/impacts.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(mux)
}
