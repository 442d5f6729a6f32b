package utils

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVectorSum(t *testing.T) {
	got, err := VectorSum([]complex128{1, 2i}, []complex128{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 4 || got[1] != 4+2i {
		t.Errorf("want [4 4+2i], got %v", got)
	}
	if _, err := VectorSum([]int{1}, []int{1, 2}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("want ErrSizeMismatch, got %v", err)
	}
}

func TestDotAndSquare(t *testing.T) {
	got, err := Multiply([]float64{1, 2, 3}, []float64{4, 5, 6})
	if err != nil || got != 32 {
		t.Errorf("want 32, got %v (%v)", got, err)
	}
	if _, err := Dot([]float64{1, 2}, []float64{1}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("want ErrSizeMismatch, got %v", err)
	}
	if sq := Square([]complex128{1i, 1}); sq != 0 {
		t.Errorf("square does not conjugate: want 0, got %v", sq)
	}
	if sc := Increase(2, []int{1, -3}); sc[0] != 2 || sc[1] != -6 {
		t.Errorf("want [2 -6], got %v", sc)
	}
}

func TestDot_SymmetricAndBilinear(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	vector := func(n int) []int64 {
		v := make([]int64, n)
		for i := range v {
			v[i] = r.Int64N(201) - 100
		}
		return v
	}
	for range 100 {
		n := 1 + r.IntN(8)
		u, v, w := vector(n), vector(n), vector(n)
		c := r.Int64N(21) - 10

		uv, _ := Dot(u, v)
		vu, _ := Dot(v, u)
		if uv != vu {
			t.Fatalf("dot is not symmetric: %d != %d for %v, %v", uv, vu, u, v)
		}

		combined, err := VectorSum(Scale(c, u), w)
		if err != nil {
			t.Fatal(err)
		}
		left, _ := Dot(combined, v)
		wv, _ := Dot(w, v)
		if left != c*uv+wv {
			t.Fatalf("dot is not linear: (%d*u + w).v = %d, want %d", c, left, c*uv+wv)
		}
		if sq, _ := Dot(u, u); Square(u) != sq {
			t.Fatalf("square %d differs from u.u %d", Square(u), sq)
		}
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(-10., 10., 10)
	if len(got) != 10 || got[0] != -10 || got[9] != 10 {
		t.Fatalf("want 10 points from -10 to 10, got %v", got)
	}
	if one := Linspace(3., 5., 1); len(one) != 1 || one[0] != 3 {
		t.Errorf("want [3], got %v", one)
	}
	if none := Linspace(0., 1., 0); none != nil {
		t.Errorf("want nil, got %v", none)
	}
}

func TestWriteAsCSV_NaturalOrder(t *testing.T) {
	dir := t.TempDir()
	data := CSV{{"10", "a"}, {"2", "b"}, {"1", "c"}}
	if err := WriteAsCSV(data, true, dir, "sweep", "model.toml", []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "sweep", "model.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "x,y\n1,c\n2,b\n10,a\n"
	if string(raw) != want {
		t.Errorf("want %q, got %q", want, string(raw))
	}
}

func TestOpenFile_FlatLayout(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(false, dir, "obs", "m", "csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !strings.HasSuffix(f.Name(), "m_obs.csv") {
		t.Errorf("want m_obs.csv, got %s", f.Name())
	}
}
