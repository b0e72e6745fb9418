package view

import (
	"context"
	"errors"

	"github.com/woozymasta/antipode/internal/geo"

	"github.com/rs/zerolog/log"
)

// ThemeKey is the store key holding the persisted theme.
const ThemeKey = "theme"

// DefaultZoom matches the world overview zoom of the page.
const DefaultZoom = 3

// UnavailableMessage is shown when the map service could not be initialized.
const UnavailableMessage = "Error loading maps"

// ErrUnavailable is returned by every transition once the map service failed.
var ErrUnavailable = errors.New("map service unavailable")

// Store is the key-value collaborator used to persist the theme.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Display receives a new frame after every state change.
type Display interface {
	Render(Frame)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Frame)

// Render calls f(fr).
func (f DisplayFunc) Render(fr Frame) { f(fr) }

// Options tune how frames are built.
type Options struct {
	SelectedIcon string
	AntipodeIcon string
	Zoom         int
}

// Controller owns one State. It is not safe for concurrent use; callers
// serialize events the way a UI thread would.
type Controller struct {
	store   Store
	display Display
	failure error
	opts    Options
	state   State
}

// NewController creates a controller with default state and the theme read
// from the store. A store read failure is logged and leaves the light theme.
func NewController(ctx context.Context, store Store, display Display, opts Options) *Controller {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	if display == nil {
		display = DisplayFunc(func(Frame) {})
	}

	c := &Controller{
		store:   store,
		display: display,
		opts:    opts,
		state: State{
			Center: geo.Origin,
			Theme:  ThemeLight,
		},
	}

	if store != nil {
		v, ok, err := store.Get(ctx, ThemeKey)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to read persisted theme, using light")
		case ok:
			c.state.Theme = ParseTheme(v)
		}
	}

	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state.clone()
}

// Err returns the failure that made the map unavailable, or nil.
func (c *Controller) Err() error {
	return c.failure
}

// Fail moves the controller into the terminal unavailable state.
// Only the first failure is kept.
func (c *Controller) Fail(err error) {
	if c.failure != nil {
		return
	}
	if err == nil {
		err = ErrUnavailable
	}

	c.failure = err
	log.Error().Err(err).Msg("Map service unavailable, controller halted")
	c.render()
}

// OnMapClicked selects coord and centers the map on it.
// A previously computed antipode is kept as is, even though it now belongs
// to the old selection; it is refreshed by the next GoToAntipode.
func (c *Controller) OnMapClicked(coord geo.Coordinate) error {
	if c.failure != nil {
		return ErrUnavailable
	}

	c.state.Selected = &coord
	c.state.Center = coord
	c.render()

	return nil
}

// GoToAntipode computes the antipode of the selected point and centers the
// map on it. Without a selection it does nothing.
func (c *Controller) GoToAntipode() error {
	if c.failure != nil {
		return ErrUnavailable
	}
	if c.state.Selected == nil {
		return nil
	}

	a := geo.Antipode(*c.state.Selected)
	c.state.Antipode = &a
	c.state.Center = a
	c.render()

	return nil
}

// GoBackToSelected centers the map on the selected point again.
// Without a selection it does nothing.
func (c *Controller) GoBackToSelected() error {
	if c.failure != nil {
		return ErrUnavailable
	}
	if c.state.Selected == nil {
		return nil
	}

	c.state.Center = *c.state.Selected
	c.render()

	return nil
}

// ToggleTheme flips the theme and persists it. Persisting is best effort:
// a failed write is logged and the in-memory theme still changes.
func (c *Controller) ToggleTheme(ctx context.Context) error {
	if c.failure != nil {
		return ErrUnavailable
	}

	c.state.Theme = c.state.Theme.Toggle()

	if c.store != nil {
		if err := c.store.Set(ctx, ThemeKey, string(c.state.Theme)); err != nil {
			log.Warn().Err(err).Str("theme", string(c.state.Theme)).Msg("Failed to persist theme")
		}
	}

	c.render()
	return nil
}

// Frame builds the current display frame.
func (c *Controller) Frame() Frame {
	if c.failure != nil {
		return Frame{
			Center:      geo.Origin,
			Zoom:        c.opts.Zoom,
			Theme:       c.state.Theme,
			Markers:     []Marker{},
			Unavailable: true,
			Message:     UnavailableMessage,
		}
	}

	markers := make([]Marker, 0, 2)
	if c.state.Selected != nil {
		markers = append(markers, Marker{
			Kind:     MarkerSelected,
			Position: *c.state.Selected,
			Icon:     c.opts.SelectedIcon,
		})
	}
	if c.state.Antipode != nil {
		markers = append(markers, Marker{
			Kind:     MarkerAntipode,
			Position: *c.state.Antipode,
			Icon:     c.opts.AntipodeIcon,
		})
	}

	return Frame{
		Center:   c.state.Center,
		Zoom:     c.opts.Zoom,
		Theme:    c.state.Theme,
		Markers:  markers,
		Controls: c.state.Selected != nil,
	}
}

// Markers exports the current markers as GeoJSON points.
func (c *Controller) Markers() geo.GeoJSONFeatureCollection {
	fr := c.Frame()
	fc := geo.NewFeatureCollection(len(fr.Markers))
	for _, m := range fr.Markers {
		props := map[string]interface{}{"kind": string(m.Kind)}
		if m.Icon != "" {
			props["icon"] = m.Icon
		}
		fc.Features = append(fc.Features, m.Position.Feature(props))
	}
	return fc
}

func (c *Controller) render() {
	c.display.Render(c.Frame())
}
