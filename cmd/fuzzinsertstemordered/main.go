// Command fuzzinsertstemordered stress-tests Tree against a brute-force
// O(n^2) overlap oracle: repeated rounds of random insertion and removal,
// each checked against both the tree's invariants and an independent
// recomputation of the overlap set. Runs until it finds a mismatch or is
// killed.
package main

import (
	"fmt"
	"math/rand"

	broadphase "github.com/palisade-physics/broadphase"
)

type recorder struct {
	pairs map[[2]int32]bool
}

func newRecorder() *recorder { return &recorder{pairs: make(map[[2]int32]bool)} }

func (r *recorder) Handle(a, b int32) {
	if a > b {
		a, b = b, a
	}
	key := [2]int32{a, b}
	if r.pairs[key] {
		panic(fmt.Sprintf("duplicate pair reported: (%d, %d)", a, b))
	}
	r.pairs[key] = true
}

func randomBox(rng *rand.Rand, extent float32) broadphase.AABB {
	x := rng.Float32() * extent
	y := rng.Float32() * extent
	z := rng.Float32() * extent
	size := rng.Float32()*2 + 0.5
	return broadphase.AABB{
		Min: broadphase.Vec3{X: x, Y: y, Z: z},
		Max: broadphase.Vec3{X: x + size, Y: y + size, Z: z + size},
	}
}

func bruteForceOverlaps(boxes map[int32]broadphase.AABB) map[[2]int32]bool {
	pairs := make(map[[2]int32]bool)
	ids := make([]int32, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if broadphase.Intersects(boxes[a], boxes[b]) {
				if a > b {
					a, b = b, a
				}
				pairs[[2]int32{a, b}] = true
			}
		}
	}
	return pairs
}

func main() {
	broadphase.EnableDebugValidation(true)
	rng := rand.New(rand.NewSource(42))

	for attempt := 0; ; attempt++ {
		fmt.Println("attempt #", attempt)

		tree, err := broadphase.New(64)
		if err != nil {
			panic(err)
		}

		live := make(map[int32]broadphase.AABB)
		idByLeaf := make(map[int32]int32)
		nextID := int32(0)

		for i := 0; i < 64; i++ {
			box := randomBox(rng, 20)
			leaf := tree.Add(box)
			live[nextID] = box
			idByLeaf[leaf] = nextID
			nextID++
		}
		if err := tree.Validate(); err != nil {
			panic(err)
		}

		for leaf := int32(1); leaf < tree.LeafCount(); leaf += 2 {
			moved, err := tree.RemoveAt(leaf)
			if err != nil {
				panic(err)
			}
			delete(live, idByLeaf[leaf])
			delete(idByLeaf, leaf)
			if moved >= 0 {
				idByLeaf[leaf] = idByLeaf[moved]
				delete(idByLeaf, moved)
			}
		}
		if err := tree.Validate(); err != nil {
			panic(err)
		}

		got := newRecorder()
		tree.GetSelfOverlaps(got)

		translated := make(map[[2]int32]bool, len(got.pairs))
		for k := range got.pairs {
			a, b := idByLeaf[k[0]], idByLeaf[k[1]]
			if a > b {
				a, b = b, a
			}
			translated[[2]int32{a, b}] = true
		}

		want := bruteForceOverlaps(live)
		if len(translated) != len(want) {
			panic(fmt.Sprintf("overlap count mismatch: got %d, want %d", len(translated), len(want)))
		}
		for k := range want {
			if !translated[k] {
				panic(fmt.Sprintf("missing overlap pair %v", k))
			}
		}
	}
}
