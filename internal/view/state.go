// Package view holds the interaction state of the antipode explorer and the
// transitions triggered by user events coming from the map display.
package view

import "github.com/woozymasta/antipode/internal/geo"

// Theme is the page color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps a stored value to a Theme. Anything unknown is light.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// State is the mutable interaction state of one page.
//
// Antipode is only set while Selected is set. Center is Selected or Antipode
// once a point was clicked, the origin before that.
type State struct {
	Selected *geo.Coordinate `json:"selected,omitempty"`
	Antipode *geo.Coordinate `json:"antipode,omitempty"`
	Center   geo.Coordinate  `json:"center"`
	Theme    Theme           `json:"theme"`
}

func (s State) clone() State {
	out := s
	if s.Selected != nil {
		p := *s.Selected
		out.Selected = &p
	}
	if s.Antipode != nil {
		p := *s.Antipode
		out.Antipode = &p
	}
	return out
}

// MarkerKind tells the display which pin style to use.
type MarkerKind string

const (
	MarkerSelected MarkerKind = "selected"
	MarkerAntipode MarkerKind = "antipode"
)

// Marker is a point the display should draw.
type Marker struct {
	Kind     MarkerKind     `json:"kind"`
	Position geo.Coordinate `json:"position"`
	Icon     string         `json:"icon,omitempty"`
}

// Frame is everything the display needs to redraw the page.
type Frame struct {
	Markers     []Marker       `json:"markers"`
	Message     string         `json:"message,omitempty"`
	Center      geo.Coordinate `json:"center"`
	Theme       Theme          `json:"theme"`
	Zoom        int            `json:"zoom"`
	Controls    bool           `json:"controls"` // go-to / go-back buttons
	Unavailable bool           `json:"unavailable,omitempty"`
}
