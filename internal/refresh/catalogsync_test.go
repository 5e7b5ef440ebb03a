package refresh

import "testing"

// go test -v --run TestClassifyProduct
func TestClassifyProduct(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   string
	}{
		{"Charizard ex - 059/131", "059/131", "single"},
		{"Obsidian Flames Booster Box", "", "sealed"},
		{"Paldea Evolved Elite Trainer Box", "", "sealed"},
		{"Premium Playmat", "", "other"},
	}
	for _, c := range cases {
		if got := classifyProduct(c.name, c.number); got != c.want {
			t.Errorf("classifyProduct(%q, %q) = %q, want %q", c.name, c.number, got, c.want)
		}
	}
}
