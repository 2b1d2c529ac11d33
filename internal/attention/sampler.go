package attention

import (
	"image"
	"strings"
	"time"
)

// DefaultEveryNFrames is the decimation factor for the detection pass.
const DefaultEveryNFrames = 5

// PersonRecord is one detected person in a sampled frame.
type PersonRecord struct {
	Box        image.Rectangle
	Confidence float64
	Attention  bool
}

// Sample is the result of the detection pass for a frame. Between decimation
// boundaries the last computed sample is returned again with Fresh unset.
type Sample struct {
	Persons        []PersonRecord
	AttentionCount int
	// Fence is the geofence in pixels of the frame the sample was returned for.
	Fence      image.Rectangle
	FrameIndex int
	SampledAt  time.Time
	Fresh      bool
}

// SamplerConfig controls which frames run the expensive pass.
type SamplerConfig struct {
	Fence FenceRegion
	// EveryNFrames runs detection on frames whose zero-based index is a
	// multiple of N. Values below 1 mean every frame.
	EveryNFrames int
	// Interval switches to time-based sampling when positive: a frame is
	// sampled once Interval has elapsed since the previous sample.
	Interval        time.Duration
	PersonThreshold float64
	PersonLabel     string
}

// DefaultSamplerConfig returns frame-count decimation with the kiosk fence.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Fence:           FenceRegion{XMin: 0.2, YMin: 0.0, XMax: 0.8, YMax: 1.0},
		EveryNFrames:    DefaultEveryNFrames,
		PersonThreshold: DefaultPersonThreshold,
		PersonLabel:     "person",
	}
}

// Sampler runs person detection and attention classification on a subset of
// frames and serves the cached result in between.
type Sampler struct {
	persons    Detector
	labels     Labeler
	classifier *Classifier
	config     SamplerConfig
	logger     Logger

	last    Sample
	sampled bool
}

// NewSampler wires the person detector, label source and classifier.
func NewSampler(persons Detector, labels Labeler, classifier *Classifier, config SamplerConfig, logger Logger) *Sampler {
	if config.PersonLabel == "" {
		config.PersonLabel = "person"
	}
	return &Sampler{
		persons:    persons,
		labels:     labels,
		classifier: classifier,
		config:     config,
		logger:     logger,
	}
}

// Sample returns the persons and attention count for frame index. Detection
// only runs when the frame is due; otherwise the previous result is reused.
func (s *Sampler) Sample(frame Image, index int, now time.Time) Sample {
	bounds := frame.Bounds()
	fence := s.config.Fence.ToPixels(bounds.Dx(), bounds.Dy())

	if !s.due(index, now) {
		out := s.copyLast()
		out.Fence = fence
		return out
	}

	sample := Sample{
		Persons:    make([]PersonRecord, 0),
		Fence:      fence,
		FrameIndex: index,
		SampledAt:  now,
	}

	detections, err := s.persons.Detect(frame, s.config.PersonThreshold)
	if err != nil {
		s.warn("Person detection failed on frame %d: %v", index, err)
		detections = nil
	}

	for _, det := range detections {
		if !s.isPerson(det.ClassID) {
			continue
		}
		attentive := s.classifier.Classify(frame, det.Box, fence)
		sample.Persons = append(sample.Persons, PersonRecord{
			Box:        det.Box,
			Confidence: det.Confidence,
			Attention:  attentive,
		})
		if attentive {
			sample.AttentionCount++
		}
	}

	s.last = sample
	s.last.Fresh = false
	s.sampled = true

	out := s.copyLast()
	out.Fresh = true
	return out
}

// Last returns the most recent computed sample.
func (s *Sampler) Last() Sample {
	return s.copyLast()
}

func (s *Sampler) due(index int, now time.Time) bool {
	if s.config.Interval > 0 {
		return !s.sampled || now.Sub(s.last.SampledAt) >= s.config.Interval
	}
	return index%s.everyN() == 0
}

func (s *Sampler) everyN() int {
	if s.config.EveryNFrames < 1 {
		return 1
	}
	return s.config.EveryNFrames
}

func (s *Sampler) isPerson(classID int) bool {
	return strings.Contains(s.labels.Label(classID), s.config.PersonLabel)
}

func (s *Sampler) copyLast() Sample {
	out := s.last
	out.Persons = append([]PersonRecord(nil), s.last.Persons...)
	return out
}

func (s *Sampler) warn(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Warning(format, v...)
	}
}
