package traj

import (
	"fmt"
	"strconv"

	"github.com/kpotier/molorder/pkg/box"
)

// kind is the flavour of the position columns.
type kind int

const (
	wrapped kind = iota
	unwrapped
	scaled
)

// positionColumns are the accepted position columns, by order of
// preference.
var positionColumns = []struct {
	names [3]string
	kind  kind
}{
	{[3]string{"x", "y", "z"}, wrapped},
	{[3]string{"xu", "yu", "zu"}, unwrapped},
	{[3]string{"xs", "ys", "zs"}, scaled},
	{[3]string{"xsu", "ysu", "zsu"}, scaled},
}

// columns maps the columns of the ATOMS item to the fields of a Frame.
type columns struct {
	id, typ int
	pos     [3]int
	kind    kind
	extra   map[string]int
}

func newColumns(names []string) (columns, error) {
	c := columns{id: -1, typ: -1, pos: [3]int{-1, -1, -1}, extra: make(map[string]int)}

	index := make(map[string]int, len(names))
	for k, v := range names {
		index[v] = k
	}

	for _, p := range positionColumns {
		x, okx := index[p.names[0]]
		y, oky := index[p.names[1]]
		z, okz := index[p.names[2]]
		if okx && oky && okz {
			c.pos = [3]int{x, y, z}
			c.kind = p.kind
			break
		}
	}
	if c.pos[0] < 0 {
		return c, fmt.Errorf("cannot find the position columns (x y z, xu yu zu or xs ys zs)")
	}

	if k, ok := index["type"]; ok {
		c.typ = k
	}
	if k, ok := index["id"]; ok {
		c.id = k
	}

	for k, v := range names {
		if k != c.id && k != c.typ && k != c.pos[0] && k != c.pos[1] && k != c.pos[2] {
			c.extra[v] = k
		}
	}
	return c, nil
}

// parse fills atom i of f from the fields of its line.
func (c columns) parse(fields []string, h header, f *Frame, i int) error {
	var p [3]float64
	for k := 0; k < 3; k++ {
		v, err := strconv.ParseFloat(fields[c.pos[k]], 64)
		if err != nil {
			return fmt.Errorf("atom %d: %w", i, err)
		}
		p[k] = v
	}

	var pos box.Vec3
	if c.kind == scaled {
		pos = h.box.MakeAbsolute(box.Vec3{float32(p[0]), float32(p[1]), float32(p[2])})
	} else {
		pos = box.Vec3{
			float32(p[0] - float64(h.origin[0])),
			float32(p[1] - float64(h.origin[1])),
			float32(p[2] - float64(h.origin[2])),
		}
	}
	f.Positions[i] = h.box.WrapPoint(pos)

	if c.id >= 0 {
		id, err := strconv.Atoi(fields[c.id])
		if err != nil {
			return fmt.Errorf("atom %d: id: %w", i, err)
		}
		f.IDs[i] = id
	} else {
		f.IDs[i] = i + 1
	}

	if c.typ >= 0 {
		f.Types[i] = fields[c.typ]
	}

	for name, k := range c.extra {
		v, err := strconv.ParseFloat(fields[k], 32)
		if err != nil {
			// Non numeric columns, like element names, are not kept.
			continue
		}
		f.Extra[name][i] = float32(v)
	}
	return nil
}
