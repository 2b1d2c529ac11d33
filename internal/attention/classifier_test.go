package attention

import (
	"errors"
	"image"
	"strings"
	"testing"
)

var (
	testFence = image.Rect(128, 0, 512, 480)
	// 280x250 = 70000 px, inside testFence
	closePerson = image.Rect(180, 100, 460, 350)
	// 200x250 = 50000 px, inside testFence
	farPerson = image.Rect(200, 100, 400, 350)
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name      string
		person    image.Rectangle
		faces     []Detection
		want      bool
		wantCalls int
	}{
		{
			name:      "frontal face",
			person:    closePerson,
			faces:     []Detection{face(100, 90, 0.9)},
			want:      true,
			wantCalls: 1,
		},
		{
			name:      "profile face is too tall",
			person:    closePerson,
			faces:     []Detection{face(60, 90, 0.9)},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "aspect ratio exactly at limit",
			person:    closePerson,
			faces:     []Detection{face(100, 140, 0.9)},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "no face found",
			person:    closePerson,
			faces:     nil,
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "zero width face",
			person:    closePerson,
			faces:     []Detection{face(0, 50, 0.9)},
			want:      false,
			wantCalls: 1,
		},
		{
			name:      "person too small skips face detection",
			person:    farPerson,
			faces:     []Detection{face(100, 90, 0.9)},
			want:      false,
			wantCalls: 0,
		},
		{
			name:      "person outside fence skips face detection",
			person:    image.Rect(0, 0, 150, 480),
			faces:     []Detection{face(100, 90, 0.9)},
			want:      false,
			wantCalls: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			faces := &scriptedDetector{results: [][]Detection{tc.faces}}
			c := NewClassifier(faces, DefaultClassifierConfig(), nil)

			got := c.Classify(newFrame(640, 480), tc.person, testFence)
			if got != tc.want {
				t.Errorf("Classify: got %v, want %v", got, tc.want)
			}
			if faces.calls != tc.wantCalls {
				t.Errorf("face detector calls: got %d, want %d", faces.calls, tc.wantCalls)
			}
		})
	}
}

func TestClassifier_UsesFaceThreshold(t *testing.T) {
	faces := &scriptedDetector{results: [][]Detection{{face(100, 90, 0.9)}}}
	c := NewClassifier(faces, DefaultClassifierConfig(), nil)

	c.Classify(newFrame(640, 480), closePerson, testFence)

	if len(faces.thresholds) != 1 || faces.thresholds[0] != DefaultFaceThreshold {
		t.Errorf("face threshold: got %v, want [%v]", faces.thresholds, DefaultFaceThreshold)
	}
}

func TestClassifier_ClosesCrop(t *testing.T) {
	frame := newFrame(640, 480)
	faces := &scriptedDetector{results: [][]Detection{{face(100, 90, 0.9)}}}
	c := NewClassifier(faces, DefaultClassifierConfig(), nil)

	c.Classify(frame, closePerson, testFence)

	if *frame.closed != 1 {
		t.Errorf("crop closes: got %d, want 1", *frame.closed)
	}
}

func TestClassifier_PersonOutsideFrame(t *testing.T) {
	faces := &scriptedDetector{results: [][]Detection{{face(100, 90, 0.9)}}}
	cfg := DefaultClassifierConfig()
	c := NewClassifier(faces, cfg, nil)

	// large enough and inside the fence, but the frame is too small to crop
	got := c.Classify(newFrame(100, 100), closePerson, testFence)
	if got {
		t.Error("expected no attention for a box outside the frame")
	}
	if faces.calls != 0 {
		t.Errorf("face detector should not run on an empty crop, got %d calls", faces.calls)
	}
}

func TestClassifier_DetectorErrorIsNotAttention(t *testing.T) {
	faces := &scriptedDetector{err: errors.New("inference failed")}
	log := &recordingLogger{}
	c := NewClassifier(faces, DefaultClassifierConfig(), log)

	if c.Classify(newFrame(640, 480), closePerson, testFence) {
		t.Error("expected false when face detection fails")
	}
	if len(log.warnings) != 1 || !strings.Contains(log.warnings[0], "inference failed") {
		t.Errorf("expected one warning about the failure, got %v", log.warnings)
	}
}

func TestClassifier_SmallPersonNeverAttentive(t *testing.T) {
	faces := &scriptedDetector{results: [][]Detection{{face(100, 90, 0.99)}}}
	c := NewClassifier(faces, DefaultClassifierConfig(), nil)

	for _, box := range []image.Rectangle{
		image.Rect(130, 0, 130+254, 255), // 64770 px
		image.Rect(200, 100, 400, 350),   // 50000 px
		image.Rect(300, 300, 310, 310),   // 100 px
		image.Rect(128, 0, 512, 480).Inset(100),
	} {
		if Area(box) >= DefaultMinPersonArea {
			t.Fatalf("test box %v is not below the area gate", box)
		}
		if c.Classify(newFrame(640, 480), box, testFence) {
			t.Errorf("box %v (area %d) reported attention", box, Area(box))
		}
	}
}

func TestSelectFace(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, ok := SelectFace(nil); ok {
			t.Error("expected no face")
		}
	})

	t.Run("highest confidence wins", func(t *testing.T) {
		faces := []Detection{face(40, 80, 0.5), face(100, 90, 0.9), face(120, 100, 0.7)}
		got, ok := SelectFace(faces)
		if !ok || got.Confidence != 0.9 {
			t.Errorf("got %+v, want the 0.9 face", got)
		}
	})

	t.Run("ties broken by area", func(t *testing.T) {
		faces := []Detection{face(40, 40, 0.8), face(100, 90, 0.8)}
		got, _ := SelectFace(faces)
		if Area(got.Box) != 9000 {
			t.Errorf("got area %d, want 9000", Area(got.Box))
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		faces := []Detection{face(40, 80, 0.5), face(100, 90, 0.9)}
		SelectFace(faces)
		if faces[0].Confidence != 0.5 {
			t.Error("SelectFace reordered its input")
		}
	})
}
