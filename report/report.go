package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"

	"gossip-results/results"
)

// Format selects how a summary is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q, use text, json or yaml", s)
	}
}

// Bucket is the reported view of one finalized network size
type Bucket struct {
	NetworkSize         int     `json:"network_size" yaml:"network_size"`
	NeighbourListSize   int     `json:"neighbour_list_size" yaml:"neighbour_list_size"`
	ConsensusMissRate   float64 `json:"consensus_miss_rate" yaml:"consensus_miss_rate"`
	ConsensusHitRate    float64 `json:"consensus_hit_rate" yaml:"consensus_hit_rate"`
	MeanConsensusTimeMs float64 `json:"mean_consensus_time_ms" yaml:"mean_consensus_time_ms"`
	MeanGossipTimeMs    float64 `json:"mean_gossip_time_ms" yaml:"mean_gossip_time_ms"`
	MeanNodesReached    float64 `json:"mean_nodes_reached" yaml:"mean_nodes_reached"`
	MeanNodesNotReached float64 `json:"mean_nodes_not_reached" yaml:"mean_nodes_not_reached"`
	MeanMessagesSent    float64 `json:"mean_messages_sent" yaml:"mean_messages_sent"`
	Trials              int     `json:"trials" yaml:"trials"`
}

// Summary is everything printed for one results log
type Summary struct {
	Source  string   `json:"source" yaml:"source"`
	Records int      `json:"records" yaml:"records"`
	Buckets []Bucket `json:"buckets" yaml:"buckets"`
}

// NewSummary builds a summary from a finalized aggregator
func NewSummary(source string, agg *results.Aggregator) Summary {
	s := Summary{Source: source, Records: agg.Trials(), Buckets: []Bucket{}}
	for _, b := range agg.Buckets() {
		s.Buckets = append(s.Buckets, Bucket{
			NetworkSize:         b.NetworkSize,
			NeighbourListSize:   b.NeighbourListSize,
			ConsensusMissRate:   b.ConsensusMissRate,
			ConsensusHitRate:    b.ConsensusHitRate,
			MeanConsensusTimeMs: b.MeanConsensusTime,
			MeanGossipTimeMs:    b.MeanGossipTime,
			MeanNodesReached:    b.MeanNodesReached,
			MeanNodesNotReached: b.MeanNodesNotReached,
			MeanMessagesSent:    b.MeanMessagesSent,
			Trials:              b.Trials,
		})
	}
	return s
}

// Render writes the summary in the given format
func Render(w io.Writer, format Format, s Summary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return renderText(w, s)
	}
}

func renderText(w io.Writer, s Summary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Processed %d results\n", s.Records)
	for _, b := range s.Buckets {
		fmt.Fprintf(&sb, "\nFor Network Size: %d\n", b.NetworkSize)
		fmt.Fprintf(&sb, "Total Nodes: %d\n", b.NetworkSize)
		fmt.Fprintf(&sb, "Neighbour List Size: %d\n", b.NeighbourListSize)
		fmt.Fprintf(&sb, "Consensus Miss: %v\n", b.ConsensusMissRate)
		fmt.Fprintf(&sb, "Consensus Hit: %v\n", b.ConsensusHitRate)
		fmt.Fprintf(&sb, "Average Consensus Time: %v\n", b.MeanConsensusTimeMs)
		fmt.Fprintf(&sb, "Average Gossip Time: %v\n", b.MeanGossipTimeMs)
		fmt.Fprintf(&sb, "Average Nodes Reached: %v\n", b.MeanNodesReached)
		fmt.Fprintf(&sb, "Average Nodes Not Reached: %v\n", b.MeanNodesNotReached)
		fmt.Fprintf(&sb, "Average Total Messages Sent: %v\n", b.MeanMessagesSent)
		fmt.Fprintf(&sb, "Quantity Of Results: %d\n", b.Trials)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
