package evaluation

import (
	"sort"
)

// BlockRef identifies a test block by name and source location.
type BlockRef struct {
	Name string `json:"name"`
	Loc  string `json:"loc"`
}

// FailureReasons lists what went wrong when a wheat was not accepted.
type FailureReasons struct {
	ErroringBlocks []BlockRef `json:"erroring_blocks"`
	FailingTests   []string   `json:"failing_tests"`
}

// SuiteEvaluation grades a student's test suite against the instructor
// wheats and chaffs.
type SuiteEvaluation struct {
	// WheatsAccepted is true for every wheat the suite accepted.
	WheatsAccepted map[string]bool `json:"wheats_accepted"`

	// ChaffsRejected is true for every chaff the suite caught.
	ChaffsRejected map[string]bool `json:"chaffs_rejected"`

	// WheatFailureReasons is set when any wheat tripped a block or check.
	WheatFailureReasons *FailureReasons `json:"wheat_failure_reasons,omitempty"`
}

// Summarize grades wheat and chaff runs keyed by implementation path.
// Blocks and checks that misfire on any wheat are invalid and are ignored
// when deciding whether a chaff was caught; they are matched by the last
// element of their location.
func Summarize(results map[string]Result) SuiteEvaluation {
	invalidBlocks := map[BlockRef]struct{}{}
	invalidTests := map[string]struct{}{}

	for impl, result := range results {
		if !IsWheat(impl) || result.IsErr() {
			continue
		}
		for _, block := range result.Blocks {
			if block.Error {
				invalidBlocks[BlockRef{Name: block.Name, Loc: block.Loc}] = struct{}{}
			}
			for _, test := range block.Tests {
				if !test.Passed {
					invalidTests[test.Loc] = struct{}{}
				}
			}
		}
	}

	invalidBlockKeys := make(map[string]struct{}, len(invalidBlocks))
	for ref := range invalidBlocks {
		invalidBlockKeys[locKey(ref.Loc)] = struct{}{}
	}
	invalidTestKeys := make(map[string]struct{}, len(invalidTests))
	for loc := range invalidTests {
		invalidTestKeys[locKey(loc)] = struct{}{}
	}

	eval := SuiteEvaluation{
		WheatsAccepted: map[string]bool{},
		ChaffsRejected: map[string]bool{},
	}

	// A path naming both a wheat and a chaff is graded as each.
	for impl, result := range results {
		if IsWheat(impl) {
			eval.WheatsAccepted[impl] = wheatAccepted(result)
		}
		if IsChaff(impl) {
			filtered := filterInvalid(result, invalidBlockKeys, invalidTestKeys)
			eval.ChaffsRejected[impl] = chaffRejected(filtered)
		}
	}

	if len(invalidBlocks) > 0 || len(invalidTests) > 0 {
		reasons := &FailureReasons{
			ErroringBlocks: make([]BlockRef, 0, len(invalidBlocks)),
			FailingTests:   make([]string, 0, len(invalidTests)),
		}
		for ref := range invalidBlocks {
			reasons.ErroringBlocks = append(reasons.ErroringBlocks, ref)
		}
		sort.Slice(reasons.ErroringBlocks, func(i, j int) bool {
			a, b := reasons.ErroringBlocks[i], reasons.ErroringBlocks[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Loc < b.Loc
		})
		for loc := range invalidTests {
			reasons.FailingTests = append(reasons.FailingTests, loc)
		}
		sort.Strings(reasons.FailingTests)
		eval.WheatFailureReasons = reasons
	}

	return eval
}

// wheatAccepted is true when every block finished and every check passed.
// A wheat that failed to run is not accepted.
func wheatAccepted(result Result) bool {
	if result.IsErr() {
		return false
	}
	for _, block := range result.Blocks {
		if !block.Clean() {
			return false
		}
	}
	return true
}

// chaffRejected is true when any block errored or any check failed. A
// chaff that failed to run counts as caught.
func chaffRejected(result Result) bool {
	if result.IsErr() {
		return true
	}
	for _, block := range result.Blocks {
		if !block.Clean() {
			return true
		}
	}
	return false
}

func filterInvalid(result Result, blockKeys, testKeys map[string]struct{}) Result {
	if result.IsErr() {
		return result
	}

	blocks := make([]TestBlock, 0, len(result.Blocks))
	for _, block := range result.Blocks {
		if _, invalid := blockKeys[locKey(block.Loc)]; invalid {
			continue
		}
		tests := make([]Test, 0, len(block.Tests))
		for _, test := range block.Tests {
			if _, invalid := testKeys[locKey(test.Loc)]; invalid {
				continue
			}
			tests = append(tests, test)
		}
		block.Tests = tests
		blocks = append(blocks, block)
	}
	return Ok(blocks...)
}
