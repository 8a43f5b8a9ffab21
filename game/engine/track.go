package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Track is the grid the race is driven on together with the cars on it.
// Terrain never changes after loading.
type Track struct {
	layout []string
	cells  [][]SpaceKind
	width  int
	cars   []*Car
}

// ParseTrack builds a track from its rows. Empty rows are skipped. Any
// character that is not terrain places a car on an open cell.
func ParseTrack(lines []string) (*Track, error) {
	var rows []string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, trackFormatErrorf("Track File contains no specified Track.")
	}

	width := utf8.RuneCountInString(rows[0])
	for _, row := range rows[1:] {
		if utf8.RuneCountInString(row) != width {
			return nil, trackFormatErrorf("Not all track lines possess the same length. Unable to create track.")
		}
	}

	t := &Track{
		layout: rows,
		cells:  make([][]SpaceKind, len(rows)),
		width:  width,
	}
	seen := make(map[rune]bool)
	for y, row := range rows {
		t.cells[y] = make([]SpaceKind, 0, width)
		x := 0
		for _, c := range row {
			kind, ok := SpaceKindForChar(c)
			if !ok {
				if c == CrashIndicator {
					return nil, trackFormatErrorf("Character %c is reserved and cannot be used as a car.", c)
				}
				if seen[c] {
					return nil, trackFormatErrorf("Car with character %c exists multiple times in Track File. Every car needs to have a unique character.", c)
				}
				seen[c] = true
				t.cars = append(t.cars, NewCar(c, Vector{X: x, Y: y}, Vector{}))
				kind = Open
			}
			t.cells[y] = append(t.cells[y], kind)
			x++
		}
	}

	if len(t.cars) > MaxCars {
		return nil, trackFormatErrorf("Track contains %d cars, the allowed maximum is %d.", len(t.cars), MaxCars)
	}
	if len(t.cars) < MinCars {
		return nil, trackFormatErrorf("Track File contains not enough cars. Please specify a minimum of %d cars in the file.", MinCars)
	}
	return t, nil
}

// LoadTrack reads a track description line by line.
func LoadTrack(r io.Reader) (*Track, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}
	return ParseTrack(lines)
}

// LoadTrackFile loads a track from a file on disk.
func LoadTrackFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track file %s: %w", path, err)
	}
	defer f.Close()
	return LoadTrack(f)
}

func (t *Track) Width() int    { return t.width }
func (t *Track) Height() int   { return len(t.cells) }
func (t *Track) CarCount() int { return len(t.cars) }

// Layout returns a copy of the rows the track was loaded from.
func (t *Track) Layout() []string {
	return append([]string(nil), t.layout...)
}

// Car returns the car at index.
func (t *Track) Car(index int) (*Car, error) {
	if index < 0 || index >= len(t.cars) {
		return nil, carIndexError(index)
	}
	return t.cars[index], nil
}

// Cars returns the cars in track order.
func (t *Track) Cars() []*Car {
	return append([]*Car(nil), t.cars...)
}

// InBounds reports whether p lies on the grid.
func (t *Track) InBounds(p Vector) bool {
	return p.Y >= 0 && p.Y < len(t.cells) && p.X >= 0 && p.X < t.width
}

// SpaceKindAt returns the kind of the cell at p. Cells outside the grid are
// walls.
func (t *Track) SpaceKindAt(p Vector) SpaceKind {
	if !t.InBounds(p) {
		return Wall
	}
	return t.cells[p.Y][p.X]
}

// IsNearWall reports whether any of the eight neighbours of p is a wall.
func (t *Track) IsNearWall(p Vector) bool {
	for _, d := range Directions() {
		if d == None {
			continue
		}
		if t.SpaceKindAt(p.Add(d.Vector())) == Wall {
			return true
		}
	}
	return false
}

// IsOccupied reports whether a car other than except is at p. Crashed cars
// occupy their crash cell.
func (t *Track) IsOccupied(p Vector, except *Car) bool {
	for _, c := range t.cars {
		if c != except && c.position == p {
			return true
		}
	}
	return false
}

// CharAt returns the character shown for the cell at row y and column x: a
// live car's id, the crash marker if only crashed cars are there, else the
// terrain.
func (t *Track) CharAt(y, x int) rune {
	p := Vector{X: x, Y: y}
	crashed := false
	for _, c := range t.cars {
		if c.position != p {
			continue
		}
		if !c.IsCrashed() {
			return c.id
		}
		crashed = true
	}
	if crashed {
		return CrashIndicator
	}
	return t.SpaceKindAt(p).Char()
}

// Rows renders every row of the grid with CharAt.
func (t *Track) Rows() []string {
	rows := make([]string, len(t.cells))
	var b strings.Builder
	for y := range t.cells {
		b.Reset()
		for x := 0; x < t.width; x++ {
			b.WriteRune(t.CharAt(y, x))
		}
		rows[y] = b.String()
	}
	return rows
}

func (t *Track) String() string {
	return strings.Join(t.Rows(), "\n") + "\n"
}
