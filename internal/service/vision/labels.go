package vision

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// cocoLabels is the subset of COCO classes the MobileNet SSD person model reports.
var cocoLabels = map[int]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	6:  "bus",
	8:  "truck",
	16: "bird",
	17: "cat",
	18: "dog",
	27: "backpack",
	31: "handbag",
	44: "bottle",
	62: "chair",
	77: "cell phone",
}

// Labels maps detector class IDs to names.
type Labels struct {
	names map[int]string
}

// DefaultLabels returns the built-in COCO subset.
func DefaultLabels() *Labels {
	names := make(map[int]string, len(cocoLabels))
	for id, name := range cocoLabels {
		names[id] = name
	}
	return &Labels{names: names}
}

// LoadLabels reads "<id> <name>" lines from path. Blank lines and lines
// starting with # are skipped. An empty path yields DefaultLabels.
func LoadLabels(path string) (*Labels, error) {
	if path == "" {
		return DefaultLabels(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer file.Close()

	names := make(map[int]string)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idPart, name, found := strings.Cut(line, " ")
		if !found {
			return nil, fmt.Errorf("labels %s:%d: expected \"<id> <name>\"", path, lineNo)
		}
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, fmt.Errorf("labels %s:%d: invalid class id %q", path, lineNo, idPart)
		}
		names[id] = strings.TrimSpace(name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}

	return &Labels{names: names}, nil
}

// Label returns the class name, or "unknown<id>" for unmapped IDs.
func (l *Labels) Label(classID int) string {
	if name, ok := l.names[classID]; ok {
		return name
	}
	return fmt.Sprintf("unknown%d", classID)
}
