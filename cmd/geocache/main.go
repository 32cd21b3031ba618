// geocache inspects cache files written by a geocache.Cache.
//
// Usage:
//
//	geocache inspect <file>
//	geocache ids <file>
//	geocache find --id <id> <file>
//	geocache dump [--strict] <file>
//	geocache geojson [--codec json|go-json] [--bbox minX,minY,maxX,maxY] [--limit n] <file>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"

	"github.com/paulmach/orb"
	"github.com/spf13/pflag"

	"github.com/hupe1980/geocache"
	"github.com/hupe1980/geocache/cachefile"
	"github.com/hupe1980/geocache/codec"
	"github.com/hupe1980/geocache/model"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = []command{
	{"inspect", "print the header and envelope", runInspect},
	{"ids", "list feature ids in write order", runIDs},
	{"find", "print one feature as GeoJSON", runFind},
	{"dump", "print every feature as a GeoJSON line", runDump},
	{"geojson", "export the file as a GeoJSON feature collection", runGeoJSON},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printHelp(out)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, args[1:], out)
		}
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, "geocache inspects geospatial cache files.\n\nUsage:\n  geocache <command> [flags] <file>\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
}

// parse parses the flags of one command and returns its file argument.
func parse(fset *pflag.FlagSet, args []string) (string, error) {
	if err := fset.Parse(args); err != nil {
		return "", err
	}
	if fset.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one file argument", fset.Name())
	}
	return fset.Arg(0), nil
}

func openFile(path string) (*cachefile.Context, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	cf, err := cachefile.OpenFile(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, f, nil
}

func runInspect(_ context.Context, args []string, out io.Writer) error {
	path, err := parse(pflag.NewFlagSet("inspect", pflag.ContinueOnError), args)
	if err != nil {
		return err
	}
	cf, closer, err := openFile(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	md, err := cf.Metadata()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "byte order:        %s\n", cf.ByteOrder())
	fmt.Fprintf(out, "client version:    %d\n", md.ClientVersion)
	fmt.Fprintf(out, "node:              %d/%d\n", md.Level, md.Index)
	fmt.Fprintf(out, "timestamp:         %d\n", md.Timestamp)
	fmt.Fprintf(out, "features:          %d\n", md.NumFeatures)
	fmt.Fprintf(out, "feature sets:      %d\n", md.NumFeatureSets)
	fmt.Fprintf(out, "terminal:          %t\n", md.Terminal)
	fmt.Fprintf(out, "records index:     %d\n", md.RecordsIndexOffset)
	fmt.Fprintf(out, "records table:     %d\n", md.RecordsTableOffset)
	fmt.Fprintf(out, "spatial index:     %d\n", md.SpatialIndexOffset)
	fmt.Fprintf(out, "feature set index: %d\n", md.FeatureSetIndexOffset)
	fmt.Fprintf(out, "feature set table: %d\n", md.FeatureSetTableOffset)

	for i := range md.NumFeatureSets {
		fs, err := cf.FeatureSet(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "feature set %d: %s %s %q v%d [%g, %g]\n",
			fs.ID, fs.Provider, fs.Type, fs.Name, fs.Version, fs.MinResolution, fs.MaxResolution)
	}
	return nil
}

func runIDs(_ context.Context, args []string, out io.Writer) error {
	path, err := parse(pflag.NewFlagSet("ids", pflag.ContinueOnError), args)
	if err != nil {
		return err
	}
	cf, closer, err := openFile(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	ids, err := cf.FeatureIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

func runFind(ctx context.Context, args []string, out io.Writer) error {
	fset := pflag.NewFlagSet("find", pflag.ContinueOnError)
	id := fset.Int64("id", 0, "feature id to look up")
	path, err := parse(fset, args)
	if err != nil {
		return err
	}
	if !fset.Changed("id") {
		return errors.New("find: --id is required")
	}
	cf, closer, err := openFile(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	f, err := cf.FindFeature(*id)
	if err != nil {
		return err
	}
	return writeFeatures(ctx, out, single(f))
}

func runDump(ctx context.Context, args []string, out io.Writer) error {
	fset := pflag.NewFlagSet("dump", pflag.ContinueOnError)
	strict := fset.Bool("strict", false, "fail on the first record that does not decode")
	path, err := parse(fset, args)
	if err != nil {
		return err
	}
	cf, closer, err := openFile(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	cur := cf.Features()
	if *strict {
		cur = cf.StrictFeatures()
	}
	return writeFeatures(ctx, out, cur.All())
}

func runGeoJSON(ctx context.Context, args []string, out io.Writer) error {
	fset := pflag.NewFlagSet("geojson", pflag.ContinueOnError)
	codecName := fset.String("codec", codec.Default.Name(), "JSON codec (json or go-json)")
	bbox := fset.Float64Slice("bbox", nil, "keep features intersecting minX,minY,maxX,maxY")
	limit := fset.Int("limit", 0, "maximum number of features (0 = all)")
	path, err := parse(fset, args)
	if err != nil {
		return err
	}

	c, ok := codec.ByName(*codecName)
	if !ok {
		return fmt.Errorf("geojson: unknown codec %q", *codecName)
	}
	opts := geocache.ExportOptions{Limit: *limit}
	if len(*bbox) > 0 {
		if len(*bbox) != 4 {
			return errors.New("geojson: --bbox needs four values")
		}
		b := *bbox
		opts.Bound = &orb.Bound{Min: orb.Point{b[0], b[1]}, Max: orb.Point{b[2], b[3]}}
	}

	cf, closer, err := openFile(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	fc, err := geocache.FeatureCollection(ctx, cf.StrictFeatures().All(), opts)
	if err != nil {
		return err
	}
	data, err := geocache.EncodeGeoJSON(fc, c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

func single(f *model.Feature) iter.Seq2[*model.Feature, error] {
	return func(yield func(*model.Feature, error) bool) {
		yield(f, nil)
	}
}

// writeFeatures prints one GeoJSON feature per line.
func writeFeatures(ctx context.Context, out io.Writer, features iter.Seq2[*model.Feature, error]) error {
	fc, err := geocache.FeatureCollection(ctx, features, geocache.ExportOptions{})
	if err != nil {
		return err
	}
	for _, gf := range fc.Features {
		data, err := codec.Default.Marshal(gf)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}
