package visualisation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GrafanaDashboard represents a Grafana dashboard import payload
type GrafanaDashboard struct {
	Dashboard DashboardConfig `json:"dashboard"`
	FolderID  int             `json:"folderId"`
	Overwrite bool            `json:"overwrite"`
}

// DashboardConfig represents the dashboard configuration
type DashboardConfig struct {
	ID            interface{} `json:"id"`
	Title         string      `json:"title"`
	Tags          []string    `json:"tags"`
	Style         string      `json:"style"`
	Timezone      string      `json:"timezone"`
	Panels        []Panel     `json:"panels"`
	Time          TimeRange   `json:"time"`
	Templating    Templating  `json:"templating"`
	Annotations   Annotations `json:"annotations"`
	Refresh       string      `json:"refresh"`
	SchemaVersion int         `json:"schemaVersion"`
	Version       int         `json:"version"`
}

// Panel represents a Grafana panel
type Panel struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Type        string      `json:"type"`
	GridPos     GridPos     `json:"gridPos"`
	Targets     []Target    `json:"targets"`
	FieldConfig FieldConfig `json:"fieldConfig"`
	Options     interface{} `json:"options,omitempty"`
}

// GridPos represents panel grid position
type GridPos struct {
	H int `json:"h"`
	W int `json:"w"`
	X int `json:"x"`
	Y int `json:"y"`
}

// Target represents a query target
type Target struct {
	Expr         string `json:"expr"`
	LegendFormat string `json:"legendFormat,omitempty"`
	Instant      bool   `json:"instant,omitempty"`
	RefID        string `json:"refId"`
}

// FieldConfig represents field configuration
type FieldConfig struct {
	Defaults Defaults `json:"defaults"`
}

// Defaults represents default field settings
type Defaults struct {
	Color      Color         `json:"color"`
	Mappings   []interface{} `json:"mappings"`
	Thresholds Thresholds    `json:"thresholds"`
	Unit       string        `json:"unit"`
	Min        *float64      `json:"min,omitempty"`
	Max        *float64      `json:"max,omitempty"`
}

// Color represents color configuration
type Color struct {
	Mode string `json:"mode"`
}

// Thresholds represents thresholds configuration
type Thresholds struct {
	Mode  string          `json:"mode"`
	Steps []ThresholdStep `json:"steps"`
}

// ThresholdStep represents a threshold step
type ThresholdStep struct {
	Color string  `json:"color"`
	Value float64 `json:"value"`
}

// TimeRange represents time range
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Templating represents templating configuration
type Templating struct {
	List []interface{} `json:"list"`
}

// Annotations represents annotations configuration
type Annotations struct {
	List []interface{} `json:"list"`
}

type panelSpec struct {
	title  string
	metric string
	unit   string
	steps  []ThresholdStep
	ratio  bool
}

var gossipPanels = []panelSpec{
	{title: "Consensus Hit Rate", metric: "gossip_results_consensus_hit_rate", unit: "percentunit", ratio: true,
		steps: []ThresholdStep{{Color: "red", Value: 0}, {Color: "yellow", Value: 0.5}, {Color: "green", Value: 0.9}}},
	{title: "Consensus Miss Rate", metric: "gossip_results_consensus_miss_rate", unit: "percentunit", ratio: true,
		steps: []ThresholdStep{{Color: "green", Value: 0}, {Color: "yellow", Value: 0.1}, {Color: "red", Value: 0.5}}},
	{title: "Mean Consensus Time", metric: "gossip_results_mean_consensus_time_ms", unit: "ms",
		steps: []ThresholdStep{{Color: "green", Value: 0}, {Color: "yellow", Value: 5000}, {Color: "red", Value: 30000}}},
	{title: "Mean Gossip Time", metric: "gossip_results_mean_gossip_time_ms", unit: "ms",
		steps: []ThresholdStep{{Color: "green", Value: 0}, {Color: "yellow", Value: 10000}, {Color: "red", Value: 60000}}},
	{title: "Mean Nodes Reached", metric: "gossip_results_mean_nodes_reached", unit: "short",
		steps: []ThresholdStep{{Color: "blue", Value: 0}}},
	{title: "Mean Nodes Not Reached", metric: "gossip_results_mean_nodes_not_reached", unit: "short",
		steps: []ThresholdStep{{Color: "green", Value: 0}, {Color: "red", Value: 1}}},
	{title: "Mean Messages Sent", metric: "gossip_results_mean_messages_sent", unit: "short",
		steps: []ThresholdStep{{Color: "blue", Value: 0}}},
	{title: "Trials", metric: "gossip_results_bucket_trials", unit: "short",
		steps: []ThresholdStep{{Color: "blue", Value: 0}}},
}

// CreateGossipResultsDashboard creates a Grafana dashboard with one bar gauge
// per aggregated statistic, broken down by network size
func CreateGossipResultsDashboard() *GrafanaDashboard {
	panels := make([]Panel, 0, len(gossipPanels))
	for i, spec := range gossipPanels {
		panels = append(panels, newPanel(i+1, spec))
	}

	return &GrafanaDashboard{
		Dashboard: DashboardConfig{
			ID:            nil,
			Title:         "Gossip Simulation Results",
			Tags:          []string{"gossip", "consensus", "simulation"},
			Style:         "dark",
			Timezone:      "browser",
			SchemaVersion: 30,
			Version:       1,
			Refresh:       "1m",
			Time: TimeRange{
				From: "now-6h",
				To:   "now",
			},
			Templating:  Templating{List: []interface{}{}},
			Annotations: Annotations{List: []interface{}{}},
			Panels:      panels,
		},
		FolderID:  0,
		Overwrite: true,
	}
}

// newPanel lays panels out two per row
func newPanel(id int, spec panelSpec) Panel {
	defaults := Defaults{
		Color:    Color{Mode: "thresholds"},
		Mappings: []interface{}{},
		Thresholds: Thresholds{
			Mode:  "absolute",
			Steps: spec.steps,
		},
		Unit: spec.unit,
	}
	if spec.ratio {
		lo, hi := 0.0, 1.0
		defaults.Min, defaults.Max = &lo, &hi
	}

	return Panel{
		ID:    id,
		Title: spec.title,
		Type:  "bargauge",
		GridPos: GridPos{
			H: 8,
			W: 12,
			X: ((id - 1) % 2) * 12,
			Y: ((id - 1) / 2) * 8,
		},
		Targets: []Target{
			{
				Expr:         fmt.Sprintf("sort(%s)", spec.metric),
				LegendFormat: "{{network_size}} nodes",
				Instant:      true,
				RefID:        "A",
			},
		},
		FieldConfig: FieldConfig{Defaults: defaults},
		Options: map[string]interface{}{
			"orientation": "horizontal",
			"displayMode": "gradient",
		},
	}
}

// SaveDashboard saves the dashboard configuration to a JSON file
func SaveDashboard(dashboard *GrafanaDashboard, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(dashboard, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write dashboard file: %w", err)
	}

	return nil
}
