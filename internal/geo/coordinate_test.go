package geo

import "testing"

func TestCoordinateValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      Coordinate
		wantErr bool
	}{
		{"origin", Coordinate{0, 0}, false},
		{"corners", Coordinate{90, 180}, false},
		{"negative corners", Coordinate{-90, -180}, false},
		{"lat too high", Coordinate{90.1, 0}, true},
		{"lng too low", Coordinate{0, -180.5}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate(%v) error = %v; wantErr %v", tc.in, err, tc.wantErr)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("40.7128", "-74.006")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (Coordinate{Lat: 40.7128, Lng: -74.006}) {
		t.Fatalf("ParseCoordinate = %v", c)
	}

	if _, err := ParseCoordinate("north", "0"); err == nil {
		t.Fatal("expected error for non-numeric latitude")
	}
	if _, err := ParseCoordinate("0", "200"); err == nil {
		t.Fatal("expected error for out of range longitude")
	}
}

func TestCoordinateFeature(t *testing.T) {
	f := Coordinate{Lat: 1.5, Lng: -2.5}.Feature(nil)

	if f.Type != "Feature" || f.Geometry.Type != "Point" {
		t.Fatalf("unexpected feature types: %q / %q", f.Type, f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) != 2 || f.Geometry.Coordinates[0] != -2.5 || f.Geometry.Coordinates[1] != 1.5 {
		t.Fatalf("coordinates = %v; want [lng, lat]", f.Geometry.Coordinates)
	}
	if f.Properties == nil {
		t.Fatal("properties must not be nil")
	}
}

func TestTileAt(t *testing.T) {
	cases := []struct {
		name string
		in   Coordinate
		zoom int
		want Tile
	}{
		{"world tile", Coordinate{10, 20}, 0, Tile{0, 0, 0}},
		{"origin zoom 1", Coordinate{0, 0}, 1, Tile{1, 1, 1}},
		{"north west", Coordinate{60, -100}, 1, Tile{1, 0, 0}},
		{"date line clamps", Coordinate{-80, 180}, 2, Tile{2, 3, 3}},
		{"pole clamps", Coordinate{90, -180}, 3, Tile{3, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TileAt(tc.in, tc.zoom); got != tc.want {
				t.Fatalf("TileAt(%v, %d) = %+v; want %+v", tc.in, tc.zoom, got, tc.want)
			}
		})
	}
}
