package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/antipode/internal/geo"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string   `short:"i" long:"in"     description:"Input file with one lat,lng per line. Reads from stdin if empty and no --point given"`
	Output string   `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string   `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" choice:"geojson" default:"json"`
	Points []string `short:"P" long:"point"  description:"Point as lat,lng (repeatable)"`
}

// Pair is one computed antipode.
type Pair struct {
	Point     geo.Coordinate `json:"point" yaml:"point"`
	Antipode  geo.Coordinate `json:"antipode" yaml:"antipode"`
	DistanceM float64        `json:"distance_m" yaml:"distance_m"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	var in io.Reader
	if len(opts.Points) > 0 {
		in = strings.NewReader(strings.Join(opts.Points, "\n"))
	} else if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	} else {
		in = os.Stdin
	}

	pairs, err := readPairs(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := marshal(pairs, opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully computed %d antipodes to %s (format: %s)\n", len(pairs), opts.Output, opts.Format)
		return
	}

	fmt.Println(string(out))
}

// readPairs parses "lat,lng" (or "lat lng") lines. Blank lines and lines
// starting with # are skipped.
func readPairs(r io.Reader) ([]Pair, error) {
	var pairs []Pair

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected lat,lng, got %q", line, text)
		}

		p, err := geo.ParseCoordinate(fields[0], fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		a := geo.Antipode(p)
		pairs = append(pairs, Pair{Point: p, Antipode: a, DistanceM: geo.Distance(p, a)})
	}

	return pairs, sc.Err()
}

func marshal(pairs []Pair, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(pairs)
	case "geojson":
		fc := geo.NewFeatureCollection(len(pairs) * 2)
		for i, p := range pairs {
			fc.Features = append(fc.Features,
				p.Point.Feature(map[string]interface{}{"kind": "selected", "pair": i}),
				p.Antipode.Feature(map[string]interface{}{"kind": "antipode", "pair": i}),
			)
		}
		return json.MarshalIndent(fc, "", "  ")
	default:
		if pairs == nil {
			pairs = []Pair{}
		}
		return json.MarshalIndent(pairs, "", "  ")
	}
}
