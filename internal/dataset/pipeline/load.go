package pipeline

import (
	"fmt"
	"io"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l1sources"
)

// Inputs names the export files of one run. Several sensor and weather
// files are merged in the order given.
type Inputs struct {
	Sensors   []string `json:"sensors"`
	Occupancy []string `json:"occupancy"`
	Weather   []string `json:"weather"`
}

// Loaded is every decoded record of a run.
type Loaded struct {
	Readings []dataset.SensorReading
	Slots    []dataset.OccupancySlot
	Weather  []dataset.WeatherSample
	Stats    map[string]l1sources.Stats
}

// LoadInputs decodes every input file. A file that cannot be opened or
// read aborts the load; bad rows inside a readable file are skipped.
func (r *Runner) LoadInputs(in Inputs) (*Loaded, error) {
	if len(in.Sensors) == 0 {
		return nil, fmt.Errorf("no sensor files given")
	}
	dec := l1sources.Decoder{Workers: r.cfg().GetDecodeWorkers(), Logger: r.Logger}
	out := &Loaded{Stats: make(map[string]l1sources.Stats)}

	for _, path := range in.Sensors {
		recs, st, err := loadFile(r, path, dec.DecodeSensors)
		if err != nil {
			return nil, err
		}
		out.Readings = append(out.Readings, recs...)
		addStats(out.Stats, l1sources.SourceSensors, st)
	}
	for _, path := range in.Occupancy {
		recs, st, err := loadFile(r, path, dec.DecodeOccupancy)
		if err != nil {
			return nil, err
		}
		out.Slots = append(out.Slots, recs...)
		addStats(out.Stats, l1sources.SourceOccupancy, st)
	}
	for _, path := range in.Weather {
		recs, st, err := loadFile(r, path, dec.DecodeWeather)
		if err != nil {
			return nil, err
		}
		out.Weather = append(out.Weather, recs...)
		addStats(out.Stats, l1sources.SourceWeather, st)
	}
	return out, nil
}

func loadFile[T any](r *Runner, path string, decode func(io.Reader) ([]T, l1sources.Stats, error)) ([]T, l1sources.Stats, error) {
	f, err := r.fs().Open(path)
	if err != nil {
		return nil, l1sources.Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	recs, st, err := decode(f)
	if err != nil {
		return nil, l1sources.Stats{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return recs, st, nil
}

func addStats(m map[string]l1sources.Stats, source string, st l1sources.Stats) {
	cur := m[source]
	cur.Add(st)
	m[source] = cur
}
