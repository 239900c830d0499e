package visualisation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateGossipResultsDashboard(t *testing.T) {
	d := CreateGossipResultsDashboard()
	require.Len(t, d.Dashboard.Panels, len(gossipPanels))

	seen := map[GridPos]bool{}
	for i, p := range d.Dashboard.Panels {
		require.Equal(t, i+1, p.ID)
		require.Len(t, p.Targets, 1)
		require.False(t, seen[p.GridPos], "panels overlap at %+v", p.GridPos)
		seen[p.GridPos] = true
	}

	hitRate := d.Dashboard.Panels[0]
	require.Equal(t, "sort(gossip_results_consensus_hit_rate)", hitRate.Targets[0].Expr)
	require.Equal(t, 1.0, *hitRate.FieldConfig.Defaults.Max)
	require.Equal(t, GridPos{H: 8, W: 12, X: 12, Y: 0}, d.Dashboard.Panels[1].GridPos)
	require.Equal(t, GridPos{H: 8, W: 12, X: 0, Y: 8}, d.Dashboard.Panels[2].GridPos)
}

func TestSaveDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grafana", "gossip-results.json")
	require.NoError(t, SaveDashboard(CreateGossipResultsDashboard(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded GrafanaDashboard
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Equal(t, "Gossip Simulation Results", loaded.Dashboard.Title)
	require.True(t, loaded.Overwrite)
}
