package results

// Unset marks a bucket size field that has not been observed yet
const Unset = -1

// Consensus is the consensus outcome of a single trial
type Consensus struct {
	Reached    bool
	TimeMillis int
}

// NotReached is the outcome of a trial that never reached consensus
var NotReached = Consensus{}

// ReachedAfter returns the outcome of a trial that reached consensus after ms milliseconds
func ReachedAfter(ms int) Consensus {
	return Consensus{Reached: true, TimeMillis: ms}
}

// Record holds one trial's worth of log data
type Record struct {
	NetworkSize       int
	NeighbourListSize int
	// NeighbourListPercentage is only written by the simulator in percentage mode
	NeighbourListPercentage float64
	Consensus               Consensus
	GossipTimeMillis        int
	NodesReached            int
	// NodesNotReached is only read from the log when 0 < NodesReached < NetworkSize
	NodesNotReached int
	MessagesSent    int

	// Line is the line number of the record's header
	Line int
}

// StatBucket holds the running statistics for every trial of one network size
type StatBucket struct {
	NetworkSize       int
	NeighbourListSize int

	Trials          int
	ConsensusHits   int
	ConsensusMisses int

	consensusTimeSum   int64
	gossipTimeSum      int64
	nodesReachedSum    int64
	nodesNotReachedSum int64
	messagesSentSum    int64

	// Means, valid once the bucket is finalized
	ConsensusMissRate   float64
	ConsensusHitRate    float64
	MeanConsensusTime   float64
	MeanGossipTime      float64
	MeanNodesReached    float64
	MeanNodesNotReached float64
	MeanMessagesSent    float64

	finalized bool
}

// NewStatBucket creates an empty bucket with both size fields unset
func NewStatBucket() *StatBucket {
	return &StatBucket{
		NetworkSize:       Unset,
		NeighbourListSize: Unset,
	}
}

// Finalized reports whether the bucket's means have been computed
func (b *StatBucket) Finalized() bool { return b.finalized }

func (b *StatBucket) finalize() {
	if b.finalized {
		return
	}
	b.finalized = true
	if b.Trials <= 0 {
		return
	}

	// hits are captured before they become a rate
	hits := b.ConsensusHits
	if hits != 0 {
		b.MeanConsensusTime = float64(b.consensusTimeSum) / float64(hits)
	}

	trials := float64(b.Trials)
	b.ConsensusMissRate = float64(b.ConsensusMisses) / trials
	b.ConsensusHitRate = float64(hits) / trials
	b.MeanGossipTime = float64(b.gossipTimeSum) / trials
	b.MeanNodesReached = float64(b.nodesReachedSum) / trials
	b.MeanNodesNotReached = float64(b.nodesNotReachedSum) / trials
	b.MeanMessagesSent = float64(b.messagesSentSum) / trials
}
