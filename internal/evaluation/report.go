package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Report output messages.
const (
	outputPassedWheat = "Passed wheat"
	outputCaughtChaff = "Caught chaff"
	outputTestsPassed = "Tests passed!"
)

// VisibilityVisible is used for error entries so students always see why
// their submission could not be graded.
const VisibilityVisible = "visible"

// Report is a Gradescope results.json document.
type Report struct {
	Visibility       string       `json:"visibility"`
	StdoutVisibility string       `json:"stdout_visibility"`
	Tests            []TestReport `json:"tests"`
}

// TestReport is one graded entry of a Report.
type TestReport struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"max_score"`
	Output     string `json:"output"`
	Visibility string `json:"visibility"`
}

// BuildReport grades every evaluation. Wheat entries come first, then chaff
// entries, each ordered by implementation path, then one entry per
// functionality test block in input order.
func BuildReport(evals []Evaluation, visibility string) Report {
	wheatChaff := map[string]Result{}
	var functionality []Evaluation
	for _, eval := range evals {
		if IsWheat(eval.Implementation) || IsChaff(eval.Implementation) {
			wheatChaff[eval.Implementation] = eval.Result
			continue
		}
		functionality = append(functionality, eval)
	}

	suite := Summarize(wheatChaff)
	tests := make([]TestReport, 0, len(evals))

	for _, impl := range sortedKeys(suite.WheatsAccepted) {
		tests = append(tests, TestReport{
			Name:       fileName(impl),
			Score:      boolScore(suite.WheatsAccepted[impl]),
			MaxScore:   1,
			Output:     outputPassedWheat,
			Visibility: visibility,
		})
	}
	for _, impl := range sortedKeys(suite.ChaffsRejected) {
		tests = append(tests, TestReport{
			Name:       fileName(impl),
			Score:      boolScore(suite.ChaffsRejected[impl]),
			MaxScore:   1,
			Output:     outputCaughtChaff,
			Visibility: visibility,
		})
	}

	for _, eval := range functionality {
		summaries, kind := eval.Summary()
		if kind != "" {
			tests = append(tests, TestReport{
				Name:       fileName(eval.TestSuite),
				Score:      0,
				MaxScore:   1,
				Output:     fmt.Sprintf("Error: %s", kind),
				Visibility: VisibilityVisible,
			})
			continue
		}
		for _, summary := range summaries {
			tests = append(tests, TestReport{
				Name:       summary.Name,
				Score:      summary.Passed,
				MaxScore:   summary.Total,
				Output:     outputTestsPassed,
				Visibility: visibility,
			})
		}
	}

	return Report{
		Visibility:       visibility,
		StdoutVisibility: visibility,
		Tests:            tests,
	}
}

// ReadEvaluations loads a JSON array of evaluations.
func ReadEvaluations(path string) ([]Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var evals []Evaluation
	if err := json.Unmarshal(data, &evals); err != nil {
		return nil, fmt.Errorf("decode evaluations in %s: %w", path, err)
	}
	return evals, nil
}

// WriteReport writes report as JSON to path, replacing any existing file.
func WriteReport(path string, report Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return comparePaths(keys[i], keys[j]) < 0
	})
	return keys
}

// comparePaths orders paths element by element, so "a/b/x" sorts before
// "a-b/x".
func comparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}

func boolScore(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
