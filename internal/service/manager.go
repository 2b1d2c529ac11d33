package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"kiosk/internal/attention"
	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"

	"github.com/google/uuid"
)

// FrameSource yields camera frames. Images returned by Original and Processed
// are valid until the next Read.
type FrameSource interface {
	Read() error
	Original() attention.Image
	Processed() attention.Image
}

// Renderer composes the dashboard for the current frame.
type Renderer interface {
	Render(original attention.Image, overlay dto.Overlay) error
	Encode() ([]byte, error)
	// Show displays the dashboard and returns false when the operator quits.
	Show() bool
}

// Signal is the binary attention output.
type Signal interface {
	Set(on bool) error
}

// EvidenceStore persists impact evidence.
type EvidenceStore interface {
	AddImage(evidence dto.BufferedEvidence) (string, error)
}

// Broadcaster pushes updates to remote viewers.
type Broadcaster interface {
	Broadcast(message []byte)
	GetClientCount() int
}

// Manager runs the kiosk frame loop: sample, signal, advance the attention
// state, render, save evidence on impacts and publish status.
type Manager struct {
	source   FrameSource
	sampler  *attention.Sampler
	machine  *attention.Machine
	renderer Renderer
	signal   Signal
	evidence EvidenceStore
	hub      Broadcaster
	logger   *logger.Logger

	broadcastEvery int
	now            func() time.Time

	frames    int
	sessionID string

	statusMu sync.RWMutex
	status   dto.Status
}

func NewManager(source FrameSource, sampler *attention.Sampler, renderer Renderer, signal Signal,
	evidence EvidenceStore, hub Broadcaster, config *config.Config, logger *logger.Logger) *Manager {
	manager := &Manager{
		source:         source,
		sampler:        sampler,
		machine:        attention.NewMachine(config.Timing()),
		renderer:       renderer,
		signal:         signal,
		evidence:       evidence,
		hub:            hub,
		logger:         logger,
		broadcastEvery: config.BroadcastEveryNFrames,
		now:            time.Now,
		status:         dto.Status{Phase: attention.PhaseIdle.String(), Persons: []dto.PersonBox{}},
	}

	timing := config.Timing()
	manager.logger.Info("🎬 Manager ready - impact after %s, grace %s", timing.ImpactAfter, timing.GracePeriod)
	return manager
}

// Run processes frames until ctx is cancelled, the operator quits, or the
// source fails. The source error is returned as is.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("🛑 Manager stopped after %d frames", m.frames)
			return nil
		default:
		}

		if err := m.source.Read(); err != nil {
			return err
		}

		if !m.processFrame() {
			m.logger.Info("🛑 Quit requested after %d frames", m.frames)
			return nil
		}
	}
}

// Status returns the latest kiosk status.
func (m *Manager) Status() dto.Status {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

// Snapshot returns the attention state as of now.
func (m *Manager) Snapshot() attention.Snapshot {
	return m.machine.Snapshot(m.now())
}

func (m *Manager) processFrame() bool {
	now := m.now()
	index := m.frames
	m.frames++

	processed := m.source.Processed()
	sample := m.sampler.Sample(processed, index, now)

	if err := m.signal.Set(sample.AttentionCount > 0); err != nil {
		m.logger.Warning("Failed to set attention signal: %v", err)
	}

	var impact *attention.Event
	for _, event := range m.machine.Advance(sample.AttentionCount, now) {
		if event.Kind == attention.EventImpact {
			e := event
			impact = &e
		}
		m.logEvent(event)
	}

	snapshot := m.machine.Snapshot(now)
	overlay := dto.Overlay{
		Fence:         sample.Fence,
		Persons:       sample.Persons,
		ProcessedSize: processed.Bounds().Size(),
		SessionActive: snapshot.Phase != attention.PhaseIdle,
		Dwell:         snapshot.Dwell,
		Impacts:       snapshot.Impacts,
	}

	rendered := true
	if err := m.renderer.Render(m.source.Original(), overlay); err != nil {
		m.logger.Error("Failed to render dashboard: %v", err)
		rendered = false
	}

	if impact != nil {
		m.saveEvidence(*impact, sample, rendered)
	}

	status := m.updateStatus(sample, snapshot, index, now)

	keepRunning := m.renderer.Show()

	if m.broadcastEvery > 0 && index%m.broadcastEvery == 0 && m.hub.GetClientCount() > 0 {
		m.sendToViewers(status, rendered)
	}

	return keepRunning
}

func (m *Manager) logEvent(event attention.Event) {
	switch event.Kind {
	case attention.EventSessionStarted:
		m.sessionID = uuid.NewString()
		m.logger.Info("👀 Session %s started", m.sessionID)
	case attention.EventAttentionLost:
		m.logger.Info("Session %s: attention lost after %.1fs, grace period started", m.sessionID, event.Dwell.Seconds())
	case attention.EventSessionResumed:
		m.logger.Info("Session %s resumed at %.1fs", m.sessionID, event.Dwell.Seconds())
	case attention.EventSessionEnded:
		m.logger.Info("Session %s ended, dwell %.1fs", m.sessionID, event.Dwell.Seconds())
		m.sessionID = ""
	case attention.EventImpact:
		m.logger.Info("🎯 Positive impact (%d persons) in session %s after %.1fs", event.Count, m.sessionID, event.Dwell.Seconds())
	}
}

// saveEvidence stores the rendered dashboard for an impact. Evidence failures
// never affect the attention state.
func (m *Manager) saveEvidence(impact attention.Event, sample attention.Sample, rendered bool) {
	if !rendered {
		m.logger.Error("No dashboard to save as evidence for session %s", m.sessionID)
		return
	}

	data, err := m.renderer.Encode()
	if err != nil {
		m.logger.Error("Failed to encode evidence: %v", err)
		return
	}

	filename, err := m.evidence.AddImage(dto.BufferedEvidence{
		Timestamp:      impact.At,
		SessionID:      m.sessionID,
		AttentionCount: impact.Count,
		Dwell:          impact.Dwell,
		Persons:        dto.PersonBoxes(sample.Persons),
		Data:           data,
	})
	if err != nil {
		m.logger.Error("Failed to buffer evidence: %v", err)
		return
	}
	m.logger.Info("Evidence queued: %s", filename)
}

func (m *Manager) updateStatus(sample attention.Sample, snapshot attention.Snapshot, index int, now time.Time) dto.Status {
	status := dto.Status{
		Phase:          snapshot.Phase.String(),
		Attention:      sample.AttentionCount > 0,
		AttentionCount: sample.AttentionCount,
		PersonCount:    len(sample.Persons),
		DwellSeconds:   snapshot.Dwell.Seconds(),
		Impacts:        snapshot.Impacts,
		SessionID:      m.sessionID,
		Frame:          index,
		UpdatedAt:      now,
		Persons:        dto.PersonBoxes(sample.Persons),
	}

	m.statusMu.Lock()
	m.status = status
	m.statusMu.Unlock()
	return status
}

func (m *Manager) sendToViewers(status dto.Status, rendered bool) {
	msg := dto.ViewerMessage{Status: status}
	if rendered {
		data, err := m.renderer.Encode()
		if err != nil {
			m.logger.Warning("Failed to encode dashboard for viewers: %v", err)
		} else {
			msg.Image = base64.StdEncoding.EncodeToString(data)
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("Failed to marshal viewer message: %v", err)
		return
	}
	m.hub.Broadcast(payload)
}
