package main

import "testing"

func TestParseWeights(t *testing.T) {
	tests := []struct {
		in      string
		want    [4]float32
		wantErr bool
	}{
		{"60,100,40,75", [4]float32{0.6, 1, 0.4, 0.75}, false},
		{"100 100 100 100", [4]float32{1, 1, 1, 1}, false},
		{"0,0,0,0", [4]float32{0, 0, 0, 0}, false},
		{"60,100,40", [4]float32{}, true},
		{"60,100,40,75,10", [4]float32{}, true},
		{"a,b,c,d", [4]float32{}, true},
	}
	for _, tt := range tests {
		got, err := parseWeights(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWeights(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseWeights(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSniffExt(t *testing.T) {
	for _, ok := range []string{"a.png", "b.JPG", "c.jpeg", "d.qoi", "dir/e.PNG"} {
		if _, err := sniffExt(ok); err != nil {
			t.Errorf("sniffExt(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"a.gif", "b", "c.webp", "d.qoi.txt"} {
		if _, err := sniffExt(bad); err == nil {
			t.Errorf("sniffExt(%q) accepted", bad)
		}
	}
}
