// Package layout resolves named wind farm layouts to turbine coordinates.
package layout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/types"
)

const (
	// RotorDiameter of the reference turbine in meters
	RotorDiameter = 126.4

	// TestSpacing is the turbine spacing of the test layout in rotor diameters
	TestSpacing = 5.0

	// TestRows is the number of rows and columns of the test layout
	TestRows = 2
)

// Layout is a set of turbine positions in meters
type Layout struct {
	Name types.LayoutName
	X    []float64
	Y    []float64
}

// Turbines returns the number of turbines in the farm
func (l *Layout) Turbines() int {
	return len(l.X)
}

// Load returns the layout called name. The test layout is generated; every
// other layout is read from a two-column text file in dir.
func Load(name types.LayoutName, dir string) (*Layout, error) {
	if err := types.ValidateLayoutName(name); err != nil {
		return nil, err
	}
	if name == types.LayoutTest {
		return Grid(name, TestRows, TestSpacing*RotorDiameter), nil
	}

	path := filepath.Join(dir, FileName(name))
	f, err := os.Open(path)
	if err != nil {
		return nil, types.ConfigErrorf("layout %q: %v", name, err)
	}
	defer f.Close()

	l, err := Read(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// FileName is the file a named layout is read from. The numbered layouts are
// stored as layout_1.txt and so on.
func FileName(name types.LayoutName) string {
	suffix := strings.TrimPrefix(string(name), "layout")
	if suffix == "" {
		suffix = string(name)
	}
	return "layout_" + suffix + ".txt"
}

// Grid returns a rows x rows square grid. The first turbine stands at
// (spacing, spacing).
func Grid(name types.LayoutName, rows int, spacing float64) *Layout {
	points := make([]float64, rows)
	if rows == 1 {
		points[0] = spacing
	} else {
		floats.Span(points, spacing, float64(rows)*spacing)
	}

	l := &Layout{
		Name: name,
		X:    make([]float64, 0, rows*rows),
		Y:    make([]float64, 0, rows*rows),
	}
	for _, y := range points {
		for _, x := range points {
			l.X = append(l.X, x)
			l.Y = append(l.Y, y)
		}
	}
	return l
}

// Read parses whitespace separated x y pairs, one turbine per line. Blank
// lines and lines starting with # are skipped.
func Read(r io.Reader, name types.LayoutName) (*Layout, error) {
	l := &Layout{Name: name}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, types.ConfigErrorf("line %d: expected 2 columns, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, types.ConfigErrorf("line %d: %v", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, types.ConfigErrorf("line %d: %v", line, err)
		}
		l.X = append(l.X, x)
		l.Y = append(l.Y, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if l.Turbines() == 0 {
		return nil, types.ConfigErrorf("layout %q has no turbines", name)
	}
	return l, nil
}
