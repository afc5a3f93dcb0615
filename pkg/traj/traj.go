// Package traj reads LAMMPS dump files. Positions are returned in the
// origin-centred boxes used by the rest of the module.
package traj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/kpotier/molorder/pkg/box"
)

// ErrFormat is returned when a dump file can't be parsed.
var ErrFormat = errors.New("malformed dump file")

// Frame is one configuration of a trajectory. Atoms are kept in file order.
type Frame struct {
	Timestep  int64
	Box       box.Box
	IDs       []int
	Types     []string
	Positions []box.Vec3
	// Extra holds every other numeric column, by column name.
	Extra map[string][]float32
}

// Len returns the number of atoms.
func (f *Frame) Len() int {
	return len(f.Positions)
}

// Select returns the indices of the atoms whose type is one of types, in
// file order. Every atom is selected if types is empty.
func (f *Frame) Select(types ...string) []int {
	idx := make([]int, 0, len(f.Types))
	for i, t := range f.Types {
		if len(types) == 0 || slices.Contains(types, t) {
			idx = append(idx, i)
		}
	}
	return idx
}

// PositionsOf returns the positions of the atoms idx.
func (f *Frame) PositionsOf(idx []int) []box.Vec3 {
	out := make([]box.Vec3, len(idx))
	for k, i := range idx {
		out[k] = f.Positions[i]
	}
	return out
}

// Column returns the values of an extra column for the atoms idx.
func (f *Frame) Column(name string, idx []int) ([]float32, error) {
	col, ok := f.Extra[name]
	if !ok {
		return nil, fmt.Errorf("column `%s` doesn't exist", name)
	}

	out := make([]float32, len(idx))
	for k, i := range idx {
		out[k] = col[i]
	}
	return out, nil
}

// Option configures a Reader.
type Option func(*Reader)

// With2D makes the Reader return 2D boxes. The z bounds and coordinates of
// the file are ignored.
func With2D() Option {
	return func(r *Reader) {
		r.is2D = true
	}
}

// Reader reads the frames of a dump file one after the other.
type Reader struct {
	rd    *bufio.Reader
	close func() error
	is2D  bool
	line  int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{
		rd:    bufio.NewReaderSize(r, 1<<16),
		close: func() error { return nil },
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Open opens a dump file. Files ending with .zst or .lz4 are decompressed on
// the fly.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		src     io.Reader = f
		closeFn           = f.Close
	)
	switch filepath.Ext(path) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		src = dec
		closeFn = func() error {
			dec.Close()
			return f.Close()
		}
	case ".lz4":
		src = lz4.NewReader(f)
	}

	r := NewReader(src, opts...)
	r.close = closeFn
	return r, nil
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	return r.close()
}

// header is everything before the atom lines.
type header struct {
	timestep int64
	atoms    int
	box      box.Box
	origin   box.Vec3
	columns  []string
}

// Next reads the next frame. It returns io.EOF when there is none.
func (r *Reader) Next() (*Frame, error) {
	h, err := r.header()
	if err != nil {
		return nil, err
	}

	cols, err := newColumns(h.columns)
	if err != nil {
		return nil, r.errorf("%w", err)
	}

	f := &Frame{
		Timestep:  h.timestep,
		Box:       h.box,
		IDs:       make([]int, h.atoms),
		Types:     make([]string, h.atoms),
		Positions: make([]box.Vec3, h.atoms),
		Extra:     make(map[string][]float32, len(cols.extra)),
	}
	for name := range cols.extra {
		f.Extra[name] = make([]float32, h.atoms)
	}

	for i := 0; i < h.atoms; i++ {
		line, err := r.readLine()
		if err != nil {
			return nil, r.unexpected(err)
		}

		fields := strings.Fields(line)
		if len(fields) != len(h.columns) {
			return nil, r.errorf("number of columns don't match: %d (expected %d)",
				len(fields), len(h.columns))
		}

		err = cols.parse(fields, h, f, i)
		if err != nil {
			return nil, r.errorf("%w", err)
		}
	}
	return f, nil
}

// Skip discards the n next frames without parsing the atom lines.
func (r *Reader) Skip(n int) error {
	for k := 0; k < n; k++ {
		h, err := r.header()
		if err != nil {
			return fmt.Errorf("frame %d: %w", k, err)
		}
		for i := 0; i < h.atoms; i++ {
			_, err := r.readLine()
			if err != nil {
				return fmt.Errorf("frame %d: %w", k, r.unexpected(err))
			}
		}
	}
	return nil
}

func (r *Reader) header() (header, error) {
	var h header

	line, err := r.readLine()
	if err != nil {
		return h, err // io.EOF between frames
	}

	for {
		item, ok := strings.CutPrefix(line, "ITEM: ")
		if !ok {
			return h, r.errorf("expected an ITEM line, got `%s`", line)
		}

		switch {
		case item == "TIMESTEP":
			h.timestep, err = r.readInt()
		case item == "NUMBER OF ATOMS":
			var n int64
			n, err = r.readInt()
			h.atoms = int(n)
		case strings.HasPrefix(item, "BOX BOUNDS"):
			h.box, h.origin, err = r.readBox(strings.Fields(item)[2:])
		case strings.HasPrefix(item, "ATOMS"):
			h.columns = strings.Fields(item)[1:]
			return h, nil
		case item == "TIME" || item == "UNITS":
			_, err = r.readLine()
			err = r.unexpected(err)
		default:
			return h, r.errorf("unknown item `%s`", item)
		}
		if err != nil {
			return h, err
		}

		line, err = r.readLine()
		if err != nil {
			return h, r.unexpected(err)
		}
	}
}

// readBox reads the three lines of the bounds. LAMMPS writes the bounding
// box of triclinic cells along with the absolute tilts; they are converted
// to the lengths and dimensionless tilts of box.Box. The returned origin is
// the centre of the cell in file coordinates.
func (r *Reader) readBox(flags []string) (box.Box, box.Vec3, error) {
	triclinic := len(flags) >= 3 && flags[0] == "xy"

	var lo, hi, tilt [3]float64
	for k := 0; k < 3; k++ {
		line, err := r.readLine()
		if err != nil {
			return box.Box{}, box.Vec3{}, r.unexpected(err)
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || (triclinic && len(fields) < 3) {
			return box.Box{}, box.Vec3{}, r.errorf("unable to get the size of the box")
		}
		lo[k], err = strconv.ParseFloat(fields[0], 64)
		if err == nil {
			hi[k], err = strconv.ParseFloat(fields[1], 64)
		}
		if err == nil && triclinic {
			tilt[k], err = strconv.ParseFloat(fields[2], 64)
		}
		if err != nil {
			return box.Box{}, box.Vec3{}, r.errorf("box bounds: %w", err)
		}
	}

	xy, xz, yz := tilt[0], tilt[1], tilt[2]
	lo[0] -= min(0, xy, xz, xy+xz)
	hi[0] -= max(0, xy, xz, xy+xz)
	lo[1] -= min(0, yz)
	hi[1] -= max(0, yz)

	lx, ly, lz := hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]
	var txy, txz, tyz float64
	if triclinic {
		txy = xy / ly
		if lz > 0 {
			txz, tyz = xz/lz, yz/lz
		}
	}

	b, err := box.New(float32(lx), float32(ly), float32(lz),
		float32(txy), float32(txz), float32(tyz), r.is2D)
	if err != nil {
		return box.Box{}, box.Vec3{}, r.errorf("%w", err)
	}

	origin := box.Vec3{
		float32(lo[0] + (lx+xy+xz)/2),
		float32(lo[1] + (ly+yz)/2),
		float32(lo[2] + lz/2),
	}
	return b, origin, nil
}

func (r *Reader) readInt() (int64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, r.unexpected(err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, r.errorf("%w", err)
	}
	return n, nil
}

func (r *Reader) readLine() (string, error) {
	line, err := r.rd.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return "", err
	}
	r.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// unexpected turns an end of file in the middle of a frame into an error.
func (r *Reader) unexpected(err error) error {
	if err == io.EOF {
		return r.errorf("%w", io.ErrUnexpectedEOF)
	}
	return err
}

func (r *Reader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %w", ErrFormat, r.line, fmt.Errorf(format, args...))
}
