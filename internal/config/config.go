package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kiosk/internal/attention"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	// Geofence in relative coordinates (0.0-1.0)
	FenceXMin float64
	FenceYMin float64
	FenceXMax float64
	FenceYMax float64

	PositiveImpactSeconds float64
	GracePeriodSeconds    float64
	MinPersonArea         int
	MaxFaceAspectRatio    float64
	PersonThreshold       float64
	FaceThreshold         float64

	ProcessingWidth          int
	ProcessFacesEveryNFrames int           // Run detection on every Nth frame (1 = every frame)
	SampleInterval           time.Duration // >0 switches to time-based sampling

	CameraDevice     string
	PersonModelPath  string
	PersonConfigPath string
	FaceModelPath    string
	FaceConfigPath   string
	LabelsPath       string

	GPIOEnabled    bool
	LEDPin         string
	DisplayEnabled bool
	ScreenWidth    int
	ScreenHeight   int

	EvidenceDirectory     string
	EvidenceBufferLimit   int
	EvidenceFlushInterval time.Duration
	DatabasePath          string
	BroadcastEveryNFrames int
	LogDirectory          string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first without overriding set variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", "vitrina"),

		FenceXMin: getEnvAsFloat("FENCE_X_MIN_REL", 0.2),
		FenceYMin: getEnvAsFloat("FENCE_Y_MIN_REL", 0.0),
		FenceXMax: getEnvAsFloat("FENCE_X_MAX_REL", 0.8),
		FenceYMax: getEnvAsFloat("FENCE_Y_MAX_REL", 1.0),

		PositiveImpactSeconds: getEnvAsFloat("POSITIVE_IMPACT_SECONDS", 10.0),
		GracePeriodSeconds:    getEnvAsFloat("GRACE_PERIOD_SECONDS", 2.0),
		MinPersonArea:         getEnvAsInt("MIN_PERSON_AREA", attention.DefaultMinPersonArea),
		MaxFaceAspectRatio:    getEnvAsFloat("MAX_FACE_ASPECT_RATIO", attention.DefaultMaxFaceAspectRatio),
		PersonThreshold:       getEnvAsFloat("PERSON_THRESHOLD", attention.DefaultPersonThreshold),
		FaceThreshold:         getEnvAsFloat("FACE_THRESHOLD", attention.DefaultFaceThreshold),

		ProcessingWidth:          getEnvAsInt("PROCESSING_WIDTH", 640),
		ProcessFacesEveryNFrames: getEnvAsInt("PROCESS_FACES_EVERY_N_FRAMES", attention.DefaultEveryNFrames),
		SampleInterval:           getEnvAsDuration("SAMPLE_INTERVAL_MS", 0, time.Millisecond),

		CameraDevice:     getEnv("CAMERA_DEVICE", "0"),
		PersonModelPath:  getEnv("PERSON_MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		PersonConfigPath: getEnv("PERSON_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v2_coco.pbtxt")),
		FaceModelPath:    getEnv("FACE_MODEL_PATH", filepath.Join(".", "models", "res10_300x300_ssd_iter_140000.caffemodel")),
		FaceConfigPath:   getEnv("FACE_CONFIG_PATH", filepath.Join(".", "models", "deploy.prototxt")),
		LabelsPath:       getEnv("LABELS_PATH", ""),

		GPIOEnabled:    getEnvAsBool("GPIO_ENABLED", true),
		LEDPin:         getEnv("LED_PIN", "GPIO17"),
		DisplayEnabled: getEnvAsBool("DISPLAY_ENABLED", true),
		ScreenWidth:    getEnvAsInt("SCREEN_WIDTH", 1280),
		ScreenHeight:   getEnvAsInt("SCREEN_HEIGHT", 720),

		EvidenceDirectory:     getEnv("EVIDENCE_DIR", filepath.Join(".", "evidence")),
		EvidenceBufferLimit:   getEnvAsInt("EVIDENCE_BUFFER_LIMIT", 20),
		EvidenceFlushInterval: getEnvAsDuration("EVIDENCE_FLUSH_INTERVAL", 5, time.Second),
		DatabasePath:          getEnv("DB_PATH", filepath.Join(".", "data", "kiosk.db")),
		BroadcastEveryNFrames: getEnvAsInt("BROADCAST_EVERY_N_FRAMES", 3),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// Validate rejects configurations the attention pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.Fence().Validate(); err != nil {
		return err
	}
	if c.PositiveImpactSeconds <= 0 {
		return fmt.Errorf("POSITIVE_IMPACT_SECONDS must be positive, got %v", c.PositiveImpactSeconds)
	}
	if c.GracePeriodSeconds < 0 {
		return fmt.Errorf("GRACE_PERIOD_SECONDS must not be negative, got %v", c.GracePeriodSeconds)
	}
	if c.MaxFaceAspectRatio <= 0 {
		return fmt.Errorf("MAX_FACE_ASPECT_RATIO must be positive, got %v", c.MaxFaceAspectRatio)
	}
	if c.PersonThreshold <= 0 || c.PersonThreshold > 1 || c.FaceThreshold <= 0 || c.FaceThreshold > 1 {
		return fmt.Errorf("detection thresholds must be in (0, 1], got person=%v face=%v", c.PersonThreshold, c.FaceThreshold)
	}
	if c.ProcessingWidth <= 0 {
		return fmt.Errorf("PROCESSING_WIDTH must be positive, got %d", c.ProcessingWidth)
	}
	if c.ProcessFacesEveryNFrames < 1 {
		return fmt.Errorf("PROCESS_FACES_EVERY_N_FRAMES must be at least 1, got %d", c.ProcessFacesEveryNFrames)
	}
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	if c.EvidenceBufferLimit < 1 {
		return fmt.Errorf("EVIDENCE_BUFFER_LIMIT must be at least 1, got %d", c.EvidenceBufferLimit)
	}
	if c.EvidenceFlushInterval <= 0 {
		return fmt.Errorf("EVIDENCE_FLUSH_INTERVAL must be positive, got %s", c.EvidenceFlushInterval)
	}
	return nil
}

// Fence returns the configured geofence.
func (c *Config) Fence() attention.FenceRegion {
	return attention.FenceRegion{XMin: c.FenceXMin, YMin: c.FenceYMin, XMax: c.FenceXMax, YMax: c.FenceYMax}
}

// Timing returns the grace period and dwell threshold for the state machine.
func (c *Config) Timing() attention.Timing {
	return attention.Timing{
		GracePeriod: seconds(c.GracePeriodSeconds),
		ImpactAfter: seconds(c.PositiveImpactSeconds),
	}
}

// ClassifierConfig returns the proximity and orientation gates.
func (c *Config) ClassifierConfig() attention.ClassifierConfig {
	return attention.ClassifierConfig{
		MinPersonArea:      c.MinPersonArea,
		MaxFaceAspectRatio: c.MaxFaceAspectRatio,
		FaceThreshold:      c.FaceThreshold,
	}
}

// SamplerConfig returns the decimation settings.
func (c *Config) SamplerConfig() attention.SamplerConfig {
	return attention.SamplerConfig{
		Fence:           c.Fence(),
		EveryNFrames:    c.ProcessFacesEveryNFrames,
		Interval:        c.SampleInterval,
		PersonThreshold: c.PersonThreshold,
		PersonLabel:     "person",
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads an integer count of unit.
func getEnvAsDuration(key string, defaultValue int64, unit time.Duration) time.Duration {
	return time.Duration(getEnvAsInt64(key, defaultValue)) * unit
}
