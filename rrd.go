package main

import (
	"time"

	"github.com/ziutek/rrd"
)

// rrdStep is the sample interval of both databases, matched to the
// monitor's RunLoop update interval.
const rrdStep = 10

// Graph line colors (tableau palette).
const (
	colorHot  = "d62728"
	colorCold = "1f77b4"
	colorFlow = "2ca02c"
	colorCP   = "ff7f0e"
	colorPP   = "9467bd"
)

// Rrd wraps a single round-robin database file and the graph built from it.
type Rrd struct {
	path    string
	creator *rrd.Creator
	updater *rrd.Updater
	grapher *rrd.Grapher
}

// NewRrd opens (or prepares to create) a round-robin database file.
func NewRrd(filename string) *Rrd {
	return &Rrd{
		path:    filename,
		creator: rrd.NewCreator(filename, time.Now(), rrdStep),
		updater: rrd.NewUpdater(filename),
		grapher: rrd.NewGrapher(),
	}
}

// gauge declares a GAUGE data source and its graph line in one step.  Gaps
// longer than three sample intervals read as unknown rather than stale data.
func (r *Rrd) gauge(name, min, max, color, legend string) {
	r.creator.DS(name, "GAUGE", rrdStep*3, min, max)
	r.grapher.Def(name, r.path, name, "AVERAGE")
	r.grapher.Line(2.0, name, color, legend)
}

// create defines the standard archives and writes the file.  An existing
// file is preserved unless force is set.
func (r *Rrd) create(force bool) error {
	r.creator.RRA("AVERAGE", "0.5", "3", "400000")
	r.creator.RRA("MAX", "0.5", "60", "400000")
	return r.creator.Create(force)
}

// Updater updates the data in the RRD.
func (r *Rrd) Updater() *rrd.Updater {
	return r.updater
}

// Grapher describes and configures the graph.
func (r *Rrd) Grapher() *rrd.Grapher {
	return r.grapher
}
