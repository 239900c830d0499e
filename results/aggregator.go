package results

import (
	"errors"
	"io"
	"sort"
)

// Aggregator folds records into one StatBucket per network size
type Aggregator struct {
	buckets   map[int]*StatBucket
	finalized bool
}

// Observer is notified of every record folded into an Aggregator
type Observer interface {
	ObserveRecord(rec Record)
}

// ObserverFunc adapts a plain function to Observer
type ObserverFunc func(rec Record)

// ObserveRecord calls f(rec)
func (f ObserverFunc) ObserveRecord(rec Record) { f(rec) }

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[int]*StatBucket)}
}

// Ingest folds one record into the bucket for its network size
func (a *Aggregator) Ingest(rec Record) error {
	if a.finalized {
		return ErrFinalized
	}

	b, ok := a.buckets[rec.NetworkSize]
	if !ok {
		b = NewStatBucket()
		a.buckets[rec.NetworkSize] = b
	}
	b.Trials++
	if b.NetworkSize == Unset {
		b.NetworkSize = rec.NetworkSize
	}

	if b.NeighbourListSize == Unset {
		b.NeighbourListSize = rec.NeighbourListSize
	} else if b.NeighbourListSize != rec.NeighbourListSize {
		return &InconsistentConfigurationError{
			NetworkSize: b.NetworkSize,
			Expected:    b.NeighbourListSize,
			Got:         rec.NeighbourListSize,
			Line:        rec.Line,
		}
	}

	if rec.Consensus.Reached {
		b.ConsensusHits++
		b.consensusTimeSum += int64(rec.Consensus.TimeMillis)
	} else {
		b.ConsensusMisses++
	}

	b.gossipTimeSum += int64(rec.GossipTimeMillis)
	b.nodesReachedSum += int64(rec.NodesReached)

	switch rec.NodesReached {
	case 0:
		b.nodesNotReachedSum += int64(b.NetworkSize)
	case b.NetworkSize:
	default:
		b.nodesNotReachedSum += int64(rec.NodesNotReached)
	}

	b.messagesSentSum += int64(rec.MessagesSent)
	return nil
}

// Finalize turns every bucket's sums into means. Later calls are no-ops.
func (a *Aggregator) Finalize() {
	if a.finalized {
		return
	}
	a.finalized = true
	for _, b := range a.buckets {
		b.finalize()
	}
}

// Finalized reports whether Finalize has been called
func (a *Aggregator) Finalized() bool { return a.finalized }

// Bucket returns the bucket for a network size
func (a *Aggregator) Bucket(networkSize int) (*StatBucket, bool) {
	b, ok := a.buckets[networkSize]
	return b, ok
}

// Buckets returns the reportable buckets in ascending network size.
// Network size 0 is never reported.
func (a *Aggregator) Buckets() []*StatBucket {
	out := make([]*StatBucket, 0, len(a.buckets))
	for size, b := range a.buckets {
		if size == 0 {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NetworkSize < out[j].NetworkSize })
	return out
}

// Trials returns the number of records folded in across all buckets
func (a *Aggregator) Trials() int {
	n := 0
	for _, b := range a.buckets {
		n += b.Trials
	}
	return n
}

// Process reads every record from r into agg and finalizes it. The first
// error aborts the run and leaves agg unfinalized.
func Process(r *Reader, agg *Aggregator, observers ...Observer) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := agg.Ingest(rec); err != nil {
			return err
		}
		for _, o := range observers {
			o.ObserveRecord(rec)
		}
	}
	agg.Finalize()
	return nil
}
