package results

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleLog is laid out the way the simulator writes results.txt
const sampleLog = `Starting blockchain simulation program
[START] 2 Neighbours
Beginning Gossip for: 3 nodes
NeighbourList Size: 2
Time for consensus in Milliseconds: 120
Time for gossip to end in Milliseconds: 200
[END]
Version: 1 Count: 3
Total Messages Sent Is: 10
[START] 2 Neighbours
Beginning Gossip for: 3 nodes
NeighbourList Size: 2
Time for consensus: Not Reached
Time for gossip to end in Milliseconds: 300
[END]
Version: 0 Count: 3
Total Messages Sent Is: 15
`

func readAll(t *testing.T, input string) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var recs []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return recs
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
}

func TestReaderSampleLog(t *testing.T) {
	recs := readAll(t, sampleLog)
	require.Len(t, recs, 2)

	require.Equal(t, Record{
		NetworkSize:       3,
		NeighbourListSize: 2,
		Consensus:         ReachedAfter(120),
		GossipTimeMillis:  200,
		NodesReached:      3,
		MessagesSent:      10,
		Line:              3,
	}, recs[0])

	// the "Version: 0" line carries no reached count
	require.Equal(t, NotReached, recs[1].Consensus)
	require.Equal(t, 0, recs[1].NodesReached)
	require.Equal(t, 15, recs[1].MessagesSent)
	require.Equal(t, 11, recs[1].Line)
}

func TestReaderNextLineSkipsSeparators(t *testing.T) {
	r := NewReader(strings.NewReader("[END]\n\n[END]\n   \nfoo\n[END]\n"))

	line, err := r.NextLine(false)
	require.NoError(t, err)
	require.Equal(t, "foo", line)
	require.Equal(t, 5, r.Line())

	_, err = r.NextLine(false)
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderNextLineManySeparators(t *testing.T) {
	input := strings.Repeat("[END]\n", 100000) + "last\n"
	r := NewReader(strings.NewReader(input))

	line, err := r.NextLine(true)
	require.NoError(t, err)
	require.Equal(t, "last", line)
}

func TestReaderNextLineTruncated(t *testing.T) {
	r := NewReader(strings.NewReader("[END]\n"))

	_, err := r.NextLine(true)
	var truncated *TruncatedRecordError
	require.ErrorAs(t, err, &truncated)
	require.Equal(t, 1, truncated.Line)
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 0, r.Records())

	// a trailing [START] marker with no header is still a clean end
	r = NewReader(strings.NewReader("Starting blockchain simulation program\n[START] 10 Neighbours\n"))
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderTruncatedRecord(t *testing.T) {
	input := "Beginning Gossip for: 3 nodes\nNeighbourList Size: 2\nTime for consensus: 5\n"
	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	var truncated *TruncatedRecordError
	require.ErrorAs(t, err, &truncated)
}

func TestReaderConsensusVariants(t *testing.T) {
	for _, tc := range []struct {
		line string
		want Consensus
	}{
		{"Time for consensus in Milliseconds: 42", ReachedAfter(42)},
		{"Time for consensus: 42", ReachedAfter(42)},
		{"Time for consensus: Not Reached", NotReached},
	} {
		input := "Beginning Gossip for: 4 nodes\nNeighbourList Size: 1\n" + tc.line +
			"\nTime for gossip to end in Milliseconds: 7\nVersion: 1 Count: 4\nTotal Messages Sent Is: 3\n"
		recs := readAll(t, input)
		require.Len(t, recs, 1, tc.line)
		require.Equal(t, tc.want, recs[0].Consensus, tc.line)
	}
}

func TestReaderNotReachedLine(t *testing.T) {
	const tail = "Total Messages Sent Is: 9\n"
	const head = "Beginning Gossip for: 10 nodes\nNeighbourList Size: 3\nTime for consensus: Not Reached\nTime for gossip to end in Milliseconds: 1\n"

	// partial reach consumes the Version: 0 line
	recs := readAll(t, head+"Version: 1 Count: 4\nVersion: 0 Count: 6\n"+tail)
	require.Len(t, recs, 1)
	require.Equal(t, 4, recs[0].NodesReached)
	require.Equal(t, 6, recs[0].NodesNotReached)
	require.Equal(t, 9, recs[0].MessagesSent)

	// full reach goes straight to the messages line
	recs = readAll(t, head+"Version: 1 Count: 10\n"+tail)
	require.Len(t, recs, 1)
	require.Equal(t, 10, recs[0].NodesReached)
	require.Equal(t, 0, recs[0].NodesNotReached)

	// nobody reached goes straight to the messages line too
	recs = readAll(t, head+"Version: 0 Count: 10\n"+tail)
	require.Len(t, recs, 1)
	require.Equal(t, 0, recs[0].NodesReached)
	require.Equal(t, 9, recs[0].MessagesSent)
}

func TestReaderEmptyReachedCount(t *testing.T) {
	input := "Beginning Gossip for: 5 nodes\nNeighbourList Size: 1\nTime for consensus: Not Reached\n" +
		"Time for gossip to end in Milliseconds: 1\nVersion: 1 Count:\nTotal Messages Sent Is: 2\n"
	recs := readAll(t, input)
	require.Len(t, recs, 1)
	require.Equal(t, 0, recs[0].NodesReached)
}

func TestReaderNeighbourListPercentage(t *testing.T) {
	input := "[START] 5 %\nBeginning Gossip for: 100 nodes\nNeighbourList Percentage: 5 %\nNeighbourList Size: 5\n" +
		"Time for consensus in Milliseconds: 900\nTime for gossip to end in Milliseconds: 1000\n" +
		"Version: 1 Count: 100\nTotal Messages Sent Is: 500\n"
	recs := readAll(t, input)
	require.Len(t, recs, 1)
	require.Equal(t, 5.0, recs[0].NeighbourListPercentage)
	require.Equal(t, 5, recs[0].NeighbourListSize)
	require.Equal(t, 100, recs[0].NetworkSize)
}

func TestReaderMalformedLines(t *testing.T) {
	for name, input := range map[string]string{
		"header":      "Gossip for nobody\n",
		"header size": "Beginning Gossip for: many nodes\n",
		"neighbours":  "Beginning Gossip for: 3 nodes\nNeighbourList: 2\n",
		"consensus":   "Beginning Gossip for: 3 nodes\nNeighbourList Size: 2\nTime for consensus: soon\n",
		"gossip":      "Beginning Gossip for: 3 nodes\nNeighbourList Size: 2\nTime for consensus: 1\nTime for gossip: 2\n",
		"reached": "Beginning Gossip for: 3 nodes\nNeighbourList Size: 2\nTime for consensus: 1\n" +
			"Time for gossip to end in Milliseconds: 2\nVersion: 1 Count: x\n",
		"not reached": "Beginning Gossip for: 3 nodes\nNeighbourList Size: 2\nTime for consensus: 1\n" +
			"Time for gossip to end in Milliseconds: 2\nVersion: 1 Count: 1\nTotal Messages Sent Is: 4\n",
	} {
		r := NewReader(strings.NewReader(input))
		_, err := r.Next()
		var malformed *MalformedLineError
		require.ErrorAs(t, err, &malformed, name)
	}
}
