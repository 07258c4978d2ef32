// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package broadphase

import "math"

// RefitForNodeBoundsChange walks from nodeIndex up to the root,
// recomputing each ancestor's child-slot bounds as the merge of its two
// children. It does not touch leaf_count and is the operation external
// code calls after editing a leaf's AABB directly (spec §4.5).
func (t *Tree) RefitForNodeBoundsChange(nodeIndex int32) {
	for {
		meta := t.metanodes[nodeIndex]
		if meta.Parent == -1 {
			return
		}
		node := &t.nodes[nodeIndex]
		merged := Merge(node.A.Bounds, node.B.Bounds)
		t.nodes[meta.Parent].child(meta.IndexInParent).Bounds = merged
		nodeIndex = meta.Parent
	}
}

// refitAndMeasure refits the subtree under nodeIndex (without marking
// anything as a refinement candidate) and returns post_metric - pre_metric
// of nodeIndex's merged bounds plus the changes reported by its interior
// children, the cost-change contribution it hands up to its caller
// (spec §4.6).
func (t *Tree) refitAndMeasure(nodeIndex int32) float32 {
	node := &t.nodes[nodeIndex]
	preMetric := Metric(Merge(node.A.Bounds, node.B.Bounds))

	var change float32
	if !isLeaf(node.A.Index) {
		change += t.refitChild(&node.A)
	}
	if !isLeaf(node.B.Index) {
		change += t.refitChild(&node.B)
	}

	node = &t.nodes[nodeIndex]
	postMetric := Metric(Merge(node.A.Bounds, node.B.Bounds))
	return postMetric - preMetric + change
}

// refitChild recurses into an interior child via refitAndMeasure and
// writes its freshly merged bounds back into the parent's child slot.
func (t *Tree) refitChild(child *NodeChild) float32 {
	change := t.refitAndMeasure(child.Index)
	node := &t.nodes[child.Index]
	child.Bounds = Merge(node.A.Bounds, node.B.Bounds)
	return change
}

// RefitAndMark performs a single post-order traversal from the root,
// refitting bounds everywhere and collecting refinement candidates: any
// interior child whose leaf_count ≤ threshold. It returns the normalized
// cost change used to schedule refinement (spec §4.6).
func (t *Tree) RefitAndMark(threshold int32, candidates *[]int32) float32 {
	node := &t.nodes[0]
	var change float32

	if !isLeaf(node.A.Index) {
		change += t.refitAndMarkChild(&node.A, threshold, candidates)
	}
	if !isLeaf(node.B.Index) {
		change += t.refitAndMarkChild(&node.B, threshold, candidates)
	}

	node = &t.nodes[0]
	postMetric := Metric(Merge(node.A.Bounds, node.B.Bounds))
	if postMetric < 1e-10 {
		return 0
	}
	return change / postMetric
}

func (t *Tree) refitAndMarkChild(child *NodeChild, threshold int32, candidates *[]int32) float32 {
	if child.LeafCount <= threshold {
		*candidates = append(*candidates, child.Index)
		delta := t.refitAndMeasureMarked(child.Index)
		node := &t.nodes[child.Index]
		child.Bounds = Merge(node.A.Bounds, node.B.Bounds)
		return delta
	}
	return t.refitAndMarkDeeper(child, threshold, candidates)
}

// refitAndMarkDeeper continues the RefitAndMark traversal into a child
// that exceeds the threshold, still marking candidates further down.
func (t *Tree) refitAndMarkDeeper(child *NodeChild, threshold int32, candidates *[]int32) float32 {
	nodeIndex := child.Index
	node := &t.nodes[nodeIndex]
	var change float32

	if !isLeaf(node.A.Index) {
		change += t.refitAndMarkChild(&node.A, threshold, candidates)
	}
	if !isLeaf(node.B.Index) {
		change += t.refitAndMarkChild(&node.B, threshold, candidates)
	}

	node = &t.nodes[nodeIndex]
	child.Bounds = Merge(node.A.Bounds, node.B.Bounds)
	return change
}

// refitAndMeasureMarked is the refit-only measurement used once a node
// has already been appended as a refinement candidate: it still needs its
// own subtree refitted so its bounds are current going into
// BinnedRefine.
func (t *Tree) refitAndMeasureMarked(nodeIndex int32) float32 {
	return t.refitAndMeasure(nodeIndex)
}

type refitTuning struct {
	maxSubtrees         int32
	leafCountThreshold  int32
	estimatedCandidates int32
}

func getRefitAndMarkTuning(leafCount int32) refitTuning {
	maxSubtrees := int32(3 * math.Floor(math.Sqrt(float64(leafCount))))
	if maxSubtrees < 1 {
		maxSubtrees = 1
	}
	threshold := leafCount
	if maxSubtrees < threshold {
		threshold = maxSubtrees
	}
	estimated := int32(0)
	if maxSubtrees > 0 {
		estimated = 2 * leafCount / maxSubtrees
	}
	return refitTuning{maxSubtrees: maxSubtrees, leafCountThreshold: threshold, estimatedCandidates: estimated}
}

type refineSchedule struct {
	offset      int32
	period      int32
	targetCount int32
}

// getRefineTuning computes the scheduling parameters of spec §4.7 step 3
// from the cost change produced by RefitAndMark. A NaN or infinite cost
// change means upstream poses or velocities are corrupted; the tree
// cannot safely schedule refinement and the caller must abort the frame.
func getRefineTuning(costChange float32, refineAggr float32, candidateCount, nodeCount, frame int32) (refineSchedule, error) {
	if isBadFloat(costChange) {
		return refineSchedule{}, &BoundsCorruptedError{FrameIndex: frame, NodeIndex: -1, CostChange: costChange}
	}

	refineAggressiveness := maxf(0, costChange*refineAggr)
	refinePortion := minf(1, 0.25*refineAggressiveness)

	base := maxf(2, float32(math.Ceil(0.03*float64(candidateCount))))
	targetScale := base + float32(candidateCount)*refinePortion
	if float32(nodeCount) < targetScale {
		targetScale = float32(nodeCount)
	}
	if targetScale < 1 {
		targetScale = 1
	}

	period := float32(candidateCount) / targetScale
	if period < 1 {
		period = 1
	}

	mod := candidateCount
	if mod < 1 {
		mod = 1
	}
	offset := (frame*236887691 + 104395303) % mod
	if offset < 0 {
		offset += mod
	}

	targetCount := int32(math.Floor(float64(targetScale)))
	if targetCount > candidateCount {
		targetCount = candidateCount
	}

	return refineSchedule{offset: offset, period: int32(math.Ceil(float64(period))), targetCount: targetCount}, nil
}

func getCacheOptimizeTuning(maxSubtrees, leafCount, nodeCount int32, cacheAggr float32) int32 {
	if leafCount <= 0 {
		return 0
	}
	frac := 0.03 + 85*(float64(maxSubtrees)/float64(leafCount))*float64(cacheAggr)
	if frac > 1 {
		frac = 1
	}
	count := int32(math.Ceil(frac * float64(nodeCount)))
	if count > nodeCount {
		count = nodeCount
	}
	return count
}

// RefitAndRefine is the per-frame maintenance entry point: refit bounds,
// schedule and run binned-SAH treelet refinement on a rotating subset of
// candidates, then (subject to §9's note that cache optimization is
// disabled at the call site) rotate through cache-layout passes (spec
// §4.7). It short-circuits for trees too small to benefit.
func (t *Tree) RefitAndRefine(frameIndex int32, refineAggr, cacheAggr float32) error {
	if t.leafCount <= 2 {
		return nil
	}

	tuning := getRefitAndMarkTuning(t.leafCount)

	var candidates []int32
	if tuning.estimatedCandidates > 0 {
		candidates = make([]int32, 0, tuning.estimatedCandidates)
	}
	costChange := t.RefitAndMark(tuning.leafCountThreshold, &candidates)

	schedule, err := getRefineTuning(costChange, refineAggr, int32(len(candidates)), t.nodeCount, frameIndex)
	if err != nil {
		t.tracer.Trace("tree.bounds_corrupted", "frame", frameIndex, "cost_change", costChange)
		return err
	}

	targets := t.selectRefinementTargets(candidates, schedule)

	resources := newBinnedResources(tuning.maxSubtrees)
	for _, target := range targets {
		t.BinnedRefine(target, tuning.maxSubtrees, resources)
	}
	for _, target := range targets {
		t.metanodes[target].RefineFlag = 0
	}

	cacheCount := getCacheOptimizeTuning(tuning.maxSubtrees, t.leafCount, t.nodeCount, cacheAggr)
	if cacheCount > 0 && t.nodeCount > 0 {
		start := (frameIndex * cacheCount) % t.nodeCount
		if start < 0 {
			start += t.nodeCount
		}
		for i := int32(0); i < cacheCount; i++ {
			nodeIndex := (start + i) % t.nodeCount
			_ = nodeIndex
			// IncrementalCacheOptimize is wired and tested (cacheoptimize.go)
			// but left uncalled here: the source this tree is modeled on
			// comments out this exact call site. See §9.
		}
	}

	t.tracer.Trace("tree.refit_and_refine",
		"frame", frameIndex, "leaf_count", t.leafCount, "candidates", len(candidates),
		"targets", len(targets), "cost_change", costChange)

	return nil
}

// selectRefinementTargets walks offset, offset+period, ... through
// candidates, deduping via each target's refine_flag, until target_count
// distinct targets are claimed; the root is always included if unclaimed
// (spec §4.7 step 4).
func (t *Tree) selectRefinementTargets(candidates []int32, schedule refineSchedule) []int32 {
	targets := make([]int32, 0, schedule.targetCount+1)
	if t.metanodes[0].RefineFlag == 0 {
		t.metanodes[0].RefineFlag = 1
		targets = append(targets, 0)
	}

	n := int32(len(candidates))
	if n == 0 || schedule.targetCount <= 0 {
		return targets
	}

	want := schedule.targetCount - 1
	pos := schedule.offset % n
	if pos < 0 {
		pos += n
	}
	// Bounded by one full period sweep: since every candidate starts this
	// call with refine_flag==0, want distinct targets are always reachable
	// within n steps unless want itself exceeds what's available.
	for steps, claimed := int32(0), int32(0); claimed < want && steps < n; steps++ {
		nodeIndex := candidates[pos]
		if t.metanodes[nodeIndex].RefineFlag == 0 {
			t.metanodes[nodeIndex].RefineFlag = 1
			targets = append(targets, nodeIndex)
			claimed++
		}
		pos += schedule.period
		pos %= n
	}
	return targets
}
