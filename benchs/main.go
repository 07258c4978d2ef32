// Command benchs profiles Tree.Add and Tree.RefitAndRefine under a large
// pre-existing population, the same CPU/heap-profile workflow this
// package has always used for its core data structure.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	broadphase "github.com/palisade-physics/broadphase"
	"golang.org/x/sync/errgroup"
)

func main() {
	benchmarkInsertInExisting()
	benchmarkConcurrentTrees()
}

func randomBox(rng *rand.Rand, extent float32) broadphase.AABB {
	x := rng.Float32() * extent
	y := rng.Float32() * extent
	z := rng.Float32() * extent
	return broadphase.AABB{
		Min: broadphase.Vec3{X: x, Y: y, Z: z},
		Max: broadphase.Vec3{X: x + 1, Y: y + 1, Z: z + 1},
	}
}

func benchmarkInsertInExisting() {
	f, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	g, err := os.Create("mem.prof")
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		panic(err)
	}
	defer pprof.StopCPUProfile()
	defer func() { _ = pprof.WriteHeapProfile(g) }()

	n := 1_000_000
	toInsert := 10_000
	extent := float32(10_000)

	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 4; round++ {
		tree, err := broadphase.New(n + toInsert)
		if err != nil {
			panic(err)
		}
		for i := 0; i < n; i++ {
			tree.Add(randomBox(rng, extent))
		}
		fmt.Printf("round %d: built tree of %d leaves\n", round, n)

		start := time.Now()
		for i := 0; i < toInsert; i++ {
			tree.Add(randomBox(rng, extent))
		}
		elapsed := time.Since(start)
		fmt.Printf("round %d: took %v to insert %d more leaves\n", round, elapsed, toInsert)

		start = time.Now()
		if err := tree.RefitAndRefine(int32(round), 1, 1); err != nil {
			panic(err)
		}
		fmt.Printf("round %d: took %v to RefitAndRefine %d leaves\n", round, time.Since(start), tree.LeafCount())
	}
}

// benchmarkConcurrentTrees builds several independent trees side by side,
// one goroutine per tree. Each tree is still touched by a single goroutine
// at a time, matching the single-executor discipline the tree requires;
// the concurrency here is across trees, not within one.
func benchmarkConcurrentTrees() {
	const worlds = 8
	const leavesPerWorld = 50_000
	extent := float32(5_000)

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < worlds; w++ {
		w := w
		g.Go(func() error {
			tree, err := broadphase.New(leavesPerWorld)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(int64(w) + 1))
			for i := 0; i < leavesPerWorld; i++ {
				tree.Add(randomBox(rng, extent))
			}
			return tree.RefitAndRefine(0, 1, 1)
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	fmt.Printf("built and refined %d independent %d-leaf trees in %v\n", worlds, leavesPerWorld, time.Since(start))
}
