package warehouse

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var datasetYAML []byte

// FloodEvent is one monthly flood record for a state.
type FloodEvent struct {
	State              string  `yaml:"state"`
	Year               int     `yaml:"year"`
	Month              int     `yaml:"month"`
	MaxPrecipitationMM float64 `yaml:"max_precipitation_mm"`
	EventCount         int     `yaml:"flood_events"`
	AffectedPopulation int     `yaml:"affected_population"`
}

// HurricaneTrack is one best-track fix from the hurricane database.
type HurricaneTrack struct {
	Name       string  `yaml:"name"`
	Season     int     `yaml:"season"`
	ISOTime    string  `yaml:"iso_time"`
	Lat        float64 `yaml:"lat"`
	Lon        float64 `yaml:"lon"`
	WindKts    int     `yaml:"wind_kts"`
	Pressure   int     `yaml:"pressure"`
	Category   int     `yaml:"category"`
	DistToLand int     `yaml:"dist2land"`
}

// HeatDay is one daily temperature summary for a state.
type HeatDay struct {
	State          string  `yaml:"state"`
	Date           string  `yaml:"date"`
	TemperatureMax float64 `yaml:"temperature_max"`
	TemperatureMin float64 `yaml:"temperature_min"`
	HeatIndex      float64 `yaml:"heat_index"`
}

// Dataset is the archive seed.
type Dataset struct {
	FloodEvents     []FloodEvent     `yaml:"flood_events"`
	HurricaneTracks []HurricaneTrack `yaml:"hurricane_tracks"`
	DailyExtremes   []HeatDay        `yaml:"daily_extremes"`
}

// DefaultDataset parses the embedded archive snapshot.
func DefaultDataset() (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(datasetYAML, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
