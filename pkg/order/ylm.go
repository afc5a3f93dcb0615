package order

import (
	"math"
	"math/cmplx"
)

// Ylm writes the spherical harmonics Y_l^m(theta, phi) for m = -l..l into
// dst[m+l] and returns dst, grown if it is too small. theta is the polar
// angle in [0, pi] and phi the azimuthal angle. The Condon-Shortley phase is
// included.
func Ylm(l int, theta, phi float32, dst []complex64) []complex64 {
	dst = grow(dst, 2*l+1)
	x := math.Cos(float64(theta))
	p := float64(phi)

	for m := 0; m <= l; m++ {
		// sqrt((2l+1)/4pi * (l-m)!/(l+m)!)
		norm := float64(2*l+1) / (4 * math.Pi)
		for k := l - m + 1; k <= l+m; k++ {
			norm /= float64(k)
		}
		v := math.Sqrt(norm) * legendre(l, m, x)

		y := cmplx.Rect(v, float64(m)*p)
		dst[l+m] = complex64(y)
		if m > 0 {
			// Y_l^-m = (-1)^m conj(Y_l^m)
			neg := cmplx.Conj(y)
			if m%2 == 1 {
				neg = -neg
			}
			dst[l-m] = complex64(neg)
		}
	}
	return dst
}

// legendre returns the associated Legendre polynomial P_l^m(x) for m >= 0,
// with the Condon-Shortley phase.
func legendre(l, m int, x float64) float64 {
	pmm := 1.0
	if m > 0 {
		s := math.Sqrt((1 - x) * (1 + x))
		fact := 1.0
		for i := 1; i <= m; i++ {
			pmm *= -fact * s
			fact += 2
		}
	}
	if l == m {
		return pmm
	}

	pm1 := x * float64(2*m+1) * pmm
	if l == m+1 {
		return pm1
	}

	var pll float64
	for ll := m + 2; ll <= l; ll++ {
		pll = (x*float64(2*ll-1)*pm1 - float64(ll+m-1)*pmm) / float64(ll-m)
		pmm, pm1 = pm1, pll
	}
	return pll
}

// Y4m is Ylm for l = 4 written in closed form.
func Y4m(theta, phi float32, dst []complex64) []complex64 {
	const l = 4
	dst = grow(dst, 2*l+1)

	s, c := math.Sincos(float64(theta))
	c2 := c * c

	dst[0] = complex64(complex(3.0/16*math.Sqrt(35/(2*math.Pi))*math.Pow(s, 4), 0))
	dst[1] = complex64(complex(3.0/8*math.Sqrt(35/math.Pi)*c*math.Pow(s, 3), 0))
	dst[2] = complex64(complex(3.0/8*math.Sqrt(5/(2*math.Pi))*(7*c2-1)*s*s, 0))
	dst[3] = complex64(complex(3.0/8*math.Sqrt(5/math.Pi)*c*s*(7*c2-3), 0))
	dst[4] = complex64(complex(3.0/16/math.Sqrt(math.Pi)*(3-30*c2+35*c2*c2), 0))
	mirror(dst, l)
	phase(dst, l, phi)
	return dst
}

// Y6m is Ylm for l = 6 written in closed form.
func Y6m(theta, phi float32, dst []complex64) []complex64 {
	const l = 6
	dst = grow(dst, 2*l+1)

	s, c := math.Sincos(float64(theta))
	c2 := c * c
	c4 := c2 * c2

	dst[0] = complex64(complex(1.0/64*math.Sqrt(3003/math.Pi)*math.Pow(s, 6), 0))
	dst[1] = complex64(complex(3.0/32*math.Sqrt(1001/math.Pi)*c*math.Pow(s, 5), 0))
	dst[2] = complex64(complex(3.0/32*math.Sqrt(91/(2*math.Pi))*math.Pow(s, 4)*(11*c2-1), 0))
	dst[3] = complex64(complex(1.0/32*math.Sqrt(1365/math.Pi)*math.Pow(s, 3)*c*(11*c2-3), 0))
	dst[4] = complex64(complex(1.0/64*math.Sqrt(1365/math.Pi)*s*s*(33*c4-18*c2+1), 0))
	dst[5] = complex64(complex(1.0/16*math.Sqrt(273/(2*math.Pi))*s*c*(33*c4-30*c2+5), 0))
	dst[6] = complex64(complex(1.0/32*math.Sqrt(13/math.Pi)*(231*c4*c2-315*c4+105*c2-5), 0))
	mirror(dst, l)
	phase(dst, l, phi)
	return dst
}

// mirror fills the real prefactors of m > 0 from those of m < 0.
func mirror(dst []complex64, l int) {
	for m := 1; m <= l; m++ {
		v := dst[l-m]
		if m%2 == 1 {
			v = -v
		}
		dst[l+m] = v
	}
}

// phase multiplies dst[m+l] by exp(i m phi).
func phase(dst []complex64, l int, phi float32) {
	for m := -l; m <= l; m++ {
		dst[m+l] *= complex64(cmplx.Rect(1, float64(m)*float64(phi)))
	}
}

func grow(dst []complex64, n int) []complex64 {
	if cap(dst) < n {
		return make([]complex64, n)
	}
	return dst[:n]
}
