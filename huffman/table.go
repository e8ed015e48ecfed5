package huffman

import (
	"container/heap"
	"sort"
)

// weight is gifshuffle's static, hard-coded frequency table, tuned for
// English printable ASCII: lowercase letters and the space character get
// the shortest codes, punctuation and digits are mid-length, and
// anything outside printable ASCII (control codes, the high half of the
// byte range) is rare and long. The table is fixed at compile time and
// compiled into the same canonical code on both the encode and decode
// side, satisfying the "fixed, documented table" requirement without
// hand-transcribing 256 bit patterns.
var weight = func() [256]int {
	var w [256]int
	for i := range w {
		w[i] = 1 // every byte value must remain encodable
	}

	w[' '] = 1200
	for c := 'a'; c <= 'z'; c++ {
		w[c] = 600
	}
	common := "etaoinshrdlu"
	for _, c := range common {
		w[c] += 400
	}
	for c := 'A'; c <= 'Z'; c++ {
		w[c] = 80
	}
	for c := '0'; c <= '9'; c++ {
		w[c] = 60
	}
	for _, c := range ".,!?'\"-:;\n" {
		w[c] = 100
	}
	return w
}()

type node struct {
	weight      int
	symbol      int // -1 for internal nodes
	left, right *node
	// seq disambiguates equal-weight nodes so both the encoder and
	// decoder (running the identical algorithm) build the identical
	// tree shape deterministically.
	seq int
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// code is a canonical prefix code: the bits, MSB-first, packed into the
// low `length` bits of pattern.
type code struct {
	pattern uint32
	length  uint8
}

// table is the shared static Huffman code, built once from weight.
type table struct {
	root    *node
	encode  [256]code
	maxLen  uint8
}

func buildTable() *table {
	h := &nodeHeap{}
	heap.Init(h)

	seq := 0
	for sym := 0; sym < 256; sym++ {
		heap.Push(h, &node{weight: weight[sym], symbol: sym, seq: seq})
		seq++
	}

	for h.Len() > 1 {
		a := heap.Pop(h).(*node)
		b := heap.Pop(h).(*node)
		parent := &node{
			weight: a.weight + b.weight,
			symbol: -1,
			left:   a,
			right:  b,
			seq:    seq,
		}
		seq++
		heap.Push(h, parent)
	}

	root := (*h)[0]

	t := &table{root: root}
	var walk func(n *node, pattern uint32, length uint8)
	walk = func(n *node, pattern uint32, length uint8) {
		if n.symbol >= 0 {
			t.encode[n.symbol] = code{pattern: pattern, length: length}
			if length > t.maxLen {
				t.maxLen = length
			}
			return
		}
		walk(n.left, pattern<<1, length+1)
		walk(n.right, pattern<<1|1, length+1)
	}
	if root.symbol >= 0 {
		// Degenerate case: only reachable if every weight collapsed to a
		// single surviving symbol, which never happens here since every
		// byte value has weight >= 1 and there are 256 of them.
		t.encode[root.symbol] = code{pattern: 0, length: 1}
		t.maxLen = 1
	} else {
		walk(root, 0, 0)
	}

	return t
}

// sharedTable is the single instance both Encoder and Decoder read from.
var sharedTable = buildTable()

// codeLengths returns a sorted-by-length snapshot, useful only for tests
// asserting the table round-trips and stays a valid prefix code.
func codeLengths() []int {
	lens := make([]int, 0, 256)
	for _, c := range sharedTable.encode {
		lens = append(lens, int(c.length))
	}
	sort.Ints(lens)
	return lens
}
