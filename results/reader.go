package results

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lines written by the simulator into results.txt
const (
	endSentinel = "[END]"
	startPrefix = "[START]"
	banner      = "Starting blockchain simulation program"

	headerLabel           = "Beginning Gossip for:"
	neighbourPercentLabel = "NeighbourList Percentage:"
	neighbourListLabel    = "NeighbourList Size:"
	consensusLabel        = "Time for consensus:"
	consensusMillisLabel  = "Time for consensus in Milliseconds:"
	notReachedValue       = "Not Reached"
	gossipLabel           = "Time for gossip to end in Milliseconds:"
	reachedLabel          = "Version: 1 Count:"
	notReachedLabel       = "Version: 0 Count:"
	messagesLabel         = "Total Messages Sent Is:"
)

const maxLineSize = 1024 * 1024

// Reader pulls records out of a results log one at a time
type Reader struct {
	scanner *bufio.Scanner
	line    int
	records int
}

// NewReader creates a new Reader over a results log
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Line returns the number of the last line read
func (r *Reader) Line() int { return r.line }

// Records returns how many records have been read successfully
func (r *Reader) Records() int { return r.records }

// NextLine returns the next line that is neither blank nor an [END] separator.
// When the input is exhausted it returns io.EOF, or a TruncatedRecordError if
// expectMore is set because the caller is in the middle of a record.
func (r *Reader) NextLine(expectMore bool) (string, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || line == endSentinel {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read results: %w", err)
	}
	if expectMore {
		return "", &TruncatedRecordError{Line: r.line}
	}
	return "", io.EOF
}

// Next reads one full record. It returns io.EOF when no further header exists.
func (r *Reader) Next() (Record, error) {
	var rec Record

	line, err := r.header()
	if err != nil {
		return rec, err
	}
	rec.Line = r.line
	v, _ := valueAfter(line, headerLabel)
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return rec, r.malformed(headerLabel, line, nil)
	}
	if rec.NetworkSize, err = strconv.Atoi(fields[0]); err != nil {
		return rec, r.malformed(headerLabel, line, err)
	}

	if line, err = r.NextLine(true); err != nil {
		return rec, err
	}
	// percentage mode writes one extra line ahead of the list size
	if v, ok := valueAfter(line, neighbourPercentLabel); ok {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err != nil {
			return rec, r.malformed(neighbourPercentLabel, line, err)
		}
		rec.NeighbourListPercentage = pct
		if line, err = r.NextLine(true); err != nil {
			return rec, err
		}
	}
	if rec.NeighbourListSize, err = r.intValue(line, neighbourListLabel); err != nil {
		return rec, err
	}

	if rec.Consensus, err = r.consensus(); err != nil {
		return rec, err
	}

	if rec.GossipTimeMillis, err = r.nextInt(gossipLabel); err != nil {
		return rec, err
	}

	if line, err = r.NextLine(true); err != nil {
		return rec, err
	}
	// an empty count reads as nobody reached
	if v, _ := valueAfter(line, reachedLabel); v != "" {
		if rec.NodesReached, err = strconv.Atoi(v); err != nil {
			return rec, r.malformed(reachedLabel, line, err)
		}
	}

	if rec.NodesReached > 0 && rec.NodesReached < rec.NetworkSize {
		if rec.NodesNotReached, err = r.nextInt(notReachedLabel); err != nil {
			return rec, err
		}
	}

	if rec.MessagesSent, err = r.nextInt(messagesLabel); err != nil {
		return rec, err
	}

	r.records++
	return rec, nil
}

// header skips the file banner and [START] markers up to the next header line
func (r *Reader) header() (string, error) {
	for {
		line, err := r.NextLine(false)
		if err != nil {
			return "", err
		}
		if strings.Contains(line, headerLabel) {
			return line, nil
		}
		if line == banner || strings.HasPrefix(line, startPrefix) {
			continue
		}
		return "", r.malformed(headerLabel, line, nil)
	}
}

func (r *Reader) consensus() (Consensus, error) {
	line, err := r.NextLine(true)
	if err != nil {
		return NotReached, err
	}
	if v, ok := valueAfter(line, consensusLabel); ok && v == notReachedValue {
		return NotReached, nil
	}
	label := consensusLabel
	if v, ok := valueAfter(line, consensusMillisLabel); ok && v != "" {
		label = consensusMillisLabel
	}
	ms, err := r.intValue(line, label)
	if err != nil {
		return NotReached, err
	}
	return ReachedAfter(ms), nil
}

func (r *Reader) nextInt(label string) (int, error) {
	line, err := r.NextLine(true)
	if err != nil {
		return 0, err
	}
	return r.intValue(line, label)
}

func (r *Reader) intValue(line, label string) (int, error) {
	v, ok := valueAfter(line, label)
	if !ok {
		return 0, r.malformed(label, line, nil)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, r.malformed(label, line, err)
	}
	return n, nil
}

func (r *Reader) malformed(label, line string, err error) error {
	return &MalformedLineError{Line: r.line, Label: label, Text: line, Err: err}
}

// valueAfter returns the trimmed text following label in line
func valueAfter(line, label string) (string, bool) {
	i := strings.Index(line, label)
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(line[i+len(label):]), true
}
