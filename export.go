package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CellsFeatureCollection renders a partition as one polygon per cell
func CellsFeatureCollection(cells []Cell) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, c := range cells {
		f := geojson.NewFeature(c.Rect().Bound().ToPolygon())
		f.Properties["index"] = i
		f.Properties["free"] = c.Free
		fc.Append(f)
	}
	return fc
}

// PathsFeatureCollection renders each agent's assigned path as a line string
// and its position as a point
func PathsFeatureCollection(agents []*Agent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range agents {
		pos := geojson.NewFeature(a.Position.orb())
		pos.Properties["id"] = a.ID
		pos.Properties["radius"] = a.Radius
		pos.Properties["state"] = a.State().String()
		fc.Append(pos)

		if len(a.Path) < 2 {
			continue
		}
		line := make(orb.LineString, len(a.Path))
		for i, p := range a.Path {
			line[i] = p.orb()
		}
		f := geojson.NewFeature(line)
		f.Properties["id"] = a.ID
		f.Properties["pathIndex"] = a.PathIndex
		fc.Append(f)
	}
	return fc
}

// GraphFeatureCollection renders the adjacency of a partition's free cells
func GraphFeatureCollection(g *CellGraph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range g.AdjacencyLines() {
		fc.Append(geojson.NewFeature(orb.LineString{l[0].orb(), l[1].orb()}))
	}
	return fc
}
