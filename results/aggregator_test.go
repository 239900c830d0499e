package results

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func trial(size, neighbours int, consensus Consensus, gossip, reached, notReached, messages int) Record {
	return Record{
		NetworkSize:       size,
		NeighbourListSize: neighbours,
		Consensus:         consensus,
		GossipTimeMillis:  gossip,
		NodesReached:      reached,
		NodesNotReached:   notReached,
		MessagesSent:      messages,
	}
}

func TestAggregatorTwoTrials(t *testing.T) {
	agg := NewAggregator()
	require.NoError(t, agg.Ingest(trial(3, 2, ReachedAfter(120), 200, 3, 0, 10)))
	require.NoError(t, agg.Ingest(trial(3, 2, NotReached, 300, 0, 0, 15)))
	agg.Finalize()

	b, ok := agg.Bucket(3)
	require.True(t, ok)
	require.True(t, b.Finalized())
	require.Equal(t, 3, b.NetworkSize)
	require.Equal(t, 2, b.NeighbourListSize)
	require.Equal(t, 2, b.Trials)
	require.InDelta(t, 0.5, b.ConsensusHitRate, 1e-9)
	require.InDelta(t, 0.5, b.ConsensusMissRate, 1e-9)
	require.InDelta(t, 120.0, b.MeanConsensusTime, 1e-9)
	require.InDelta(t, 250.0, b.MeanGossipTime, 1e-9)
	require.InDelta(t, 1.5, b.MeanNodesReached, 1e-9)
	require.InDelta(t, 1.5, b.MeanNodesNotReached, 1e-9)
	require.InDelta(t, 12.5, b.MeanMessagesSent, 1e-9)
}

func TestAggregatorEndToEnd(t *testing.T) {
	r := NewReader(strings.NewReader(sampleLog))
	agg := NewAggregator()

	var seen []int
	observer := ObserverFunc(func(rec Record) { seen = append(seen, rec.NetworkSize) })
	require.NoError(t, Process(r, agg, observer))

	require.True(t, agg.Finalized())
	require.Equal(t, []int{3, 3}, seen)
	require.Equal(t, r.Records(), agg.Trials())

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	require.Equal(t, 2, buckets[0].Trials)
	require.InDelta(t, 120.0, buckets[0].MeanConsensusTime, 1e-9)
	require.InDelta(t, 12.5, buckets[0].MeanMessagesSent, 1e-9)
}

func TestAggregatorNotReachedDerivation(t *testing.T) {
	for _, tc := range []struct {
		reached, parsed int
		want            float64
	}{
		{reached: 0, parsed: 99, want: 10},
		{reached: 10, parsed: 99, want: 0},
		{reached: 4, parsed: 6, want: 6},
	} {
		agg := NewAggregator()
		require.NoError(t, agg.Ingest(trial(10, 3, NotReached, 1, tc.reached, tc.parsed, 1)))
		agg.Finalize()
		b, _ := agg.Bucket(10)
		require.Equal(t, tc.want, b.MeanNodesNotReached, "reached %d", tc.reached)
	}
}

func TestAggregatorInconsistentNeighbourList(t *testing.T) {
	agg := NewAggregator()
	require.NoError(t, agg.Ingest(trial(50, 5, NotReached, 1, 50, 0, 1)))

	err := agg.Ingest(trial(50, 7, NotReached, 1, 50, 0, 1))
	var inconsistent *InconsistentConfigurationError
	require.ErrorAs(t, err, &inconsistent)
	require.Equal(t, 50, inconsistent.NetworkSize)
	require.Equal(t, 5, inconsistent.Expected)
	require.Equal(t, 7, inconsistent.Got)

	// another network size may use another list size
	require.NoError(t, agg.Ingest(trial(60, 7, NotReached, 1, 60, 0, 1)))
}

func TestProcessAbortsWithoutFinalizing(t *testing.T) {
	input := "Beginning Gossip for: 50 nodes\nNeighbourList Size: 5\nTime for consensus: Not Reached\n" +
		"Time for gossip to end in Milliseconds: 1\nVersion: 1 Count: 50\nTotal Messages Sent Is: 1\n" +
		"Beginning Gossip for: 50 nodes\nNeighbourList Size: 7\nTime for consensus: Not Reached\n" +
		"Time for gossip to end in Milliseconds: 1\nVersion: 1 Count: 50\nTotal Messages Sent Is: 1\n"

	agg := NewAggregator()
	err := Process(NewReader(strings.NewReader(input)), agg)
	var inconsistent *InconsistentConfigurationError
	require.ErrorAs(t, err, &inconsistent)
	require.False(t, agg.Finalized())
}

func TestAggregatorZeroHits(t *testing.T) {
	agg := NewAggregator()
	require.NoError(t, agg.Ingest(trial(8, 2, NotReached, 40, 8, 0, 3)))
	require.NoError(t, agg.Ingest(trial(8, 2, NotReached, 60, 8, 0, 5)))
	agg.Finalize()

	b, _ := agg.Bucket(8)
	require.Equal(t, 0.0, b.MeanConsensusTime)
	require.Equal(t, 0.0, b.ConsensusHitRate)
	require.Equal(t, 1.0, b.ConsensusMissRate)
}

func TestAggregatorConsensusTimeUsesRawHits(t *testing.T) {
	agg := NewAggregator()
	require.NoError(t, agg.Ingest(trial(4, 1, ReachedAfter(100), 1, 4, 0, 1)))
	require.NoError(t, agg.Ingest(trial(4, 1, ReachedAfter(300), 1, 4, 0, 1)))
	require.NoError(t, agg.Ingest(trial(4, 1, NotReached, 1, 4, 0, 1)))
	require.NoError(t, agg.Ingest(trial(4, 1, NotReached, 1, 4, 0, 1)))
	agg.Finalize()

	b, _ := agg.Bucket(4)
	require.InDelta(t, 200.0, b.MeanConsensusTime, 1e-9)
	require.InDelta(t, 0.5, b.ConsensusHitRate, 1e-9)
	require.InDelta(t, 1.0, b.ConsensusHitRate+b.ConsensusMissRate, 1e-9)
}

func TestAggregatorOrderIndependent(t *testing.T) {
	recs := []Record{
		trial(10, 3, ReachedAfter(15), 30, 10, 0, 40),
		trial(20, 4, NotReached, 90, 0, 0, 12),
		trial(10, 3, NotReached, 70, 4, 6, 22),
		trial(20, 4, ReachedAfter(35), 50, 20, 0, 80),
		trial(10, 3, ReachedAfter(25), 40, 7, 3, 33),
	}

	forward := NewAggregator()
	for _, rec := range recs {
		require.NoError(t, forward.Ingest(rec))
	}
	forward.Finalize()

	backward := NewAggregator()
	for i := len(recs) - 1; i >= 0; i-- {
		require.NoError(t, backward.Ingest(recs[i]))
	}
	backward.Finalize()

	require.Equal(t, forward.Buckets(), backward.Buckets())
	require.Equal(t, len(recs), forward.Trials())
}

func TestAggregatorBucketsSkipZeroAndSort(t *testing.T) {
	agg := NewAggregator()
	for _, size := range []int{300, 0, 7, 5000, 12} {
		require.NoError(t, agg.Ingest(trial(size, 1, NotReached, 1, size, 0, 1)))
	}
	agg.Finalize()

	var sizes []int
	for _, b := range agg.Buckets() {
		sizes = append(sizes, b.NetworkSize)
	}
	require.Equal(t, []int{7, 12, 300, 5000}, sizes)

	_, ok := agg.Bucket(0)
	require.True(t, ok)
	require.Equal(t, 5, agg.Trials())
}

func TestAggregatorFinalizeIsOneWay(t *testing.T) {
	agg := NewAggregator()
	require.NoError(t, agg.Ingest(trial(3, 2, ReachedAfter(10), 20, 3, 0, 4)))
	agg.Finalize()
	agg.Finalize()

	b, _ := agg.Bucket(3)
	require.InDelta(t, 10.0, b.MeanConsensusTime, 1e-9)
	require.ErrorIs(t, agg.Ingest(trial(3, 2, NotReached, 1, 3, 0, 1)), ErrFinalized)
}

func TestNewStatBucketDefaults(t *testing.T) {
	b := NewStatBucket()
	require.Equal(t, Unset, b.NetworkSize)
	require.Equal(t, Unset, b.NeighbourListSize)
	require.Zero(t, b.Trials)
	require.False(t, b.Finalized())
}
