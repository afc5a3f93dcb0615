package traj

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// WriteFrame writes f as a LAMMPS dump frame with the columns id, type, x,
// y, z followed by the extra columns in alphabetical order. Positions are
// written in a box whose centre is the origin, so that reading the frame
// back gives the same positions.
func WriteFrame(w io.Writer, f *Frame) error {
	bw := bufio.NewWriter(w)

	l := f.Box.L()
	xy, xz, yz := f.Box.Tilts()
	lx, ly, lz := float64(l[0]), float64(l[1]), float64(l[2])
	if f.Box.Is2D() {
		// LAMMPS needs a thickness even for 2D systems.
		lz = 1
	}
	exy, exz, eyz := float64(xy)*ly, float64(xz)*lz, float64(yz)*lz

	lo := [3]float64{-(lx + exy + exz) / 2, -(ly + eyz) / 2, -lz / 2}
	hi := [3]float64{lo[0] + lx, lo[1] + ly, lo[2] + lz}

	fmt.Fprintf(bw, "ITEM: TIMESTEP\n%d\n", f.Timestep)
	fmt.Fprintf(bw, "ITEM: NUMBER OF ATOMS\n%d\n", f.Len())
	if exy == 0 && exz == 0 && eyz == 0 {
		fmt.Fprintf(bw, "ITEM: BOX BOUNDS pp pp pp\n")
		for k := 0; k < 3; k++ {
			fmt.Fprintf(bw, "%g %g\n", lo[k], hi[k])
		}
	} else {
		fmt.Fprintf(bw, "ITEM: BOX BOUNDS xy xz yz pp pp pp\n")
		fmt.Fprintf(bw, "%g %g %g\n",
			lo[0]+min(0, exy, exz, exy+exz), hi[0]+max(0, exy, exz, exy+exz), exy)
		fmt.Fprintf(bw, "%g %g %g\n", lo[1]+min(0, eyz), hi[1]+max(0, eyz), exz)
		fmt.Fprintf(bw, "%g %g %g\n", lo[2], hi[2], eyz)
	}

	extra := make([]string, 0, len(f.Extra))
	for name := range f.Extra {
		extra = append(extra, name)
	}
	slices.Sort(extra)

	fmt.Fprintf(bw, "ITEM: ATOMS id type x y z")
	if len(extra) > 0 {
		fmt.Fprintf(bw, " %s", strings.Join(extra, " "))
	}
	bw.WriteByte('\n')

	for i, p := range f.Positions {
		id := i + 1
		if i < len(f.IDs) {
			id = f.IDs[i]
		}
		typ := "1"
		if i < len(f.Types) && f.Types[i] != "" {
			typ = f.Types[i]
		}

		fmt.Fprintf(bw, "%d %s %g %g %g", id, typ, p[0], p[1], p[2])
		for _, name := range extra {
			fmt.Fprintf(bw, " %g", f.Extra[name][i])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
