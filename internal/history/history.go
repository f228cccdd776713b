package history

import (
	"context"
	"path"
	"strings"
	"time"
)

const lookbackDays = 14

// HookHistory is one hook's average runtime attached to its owning test.
type HookHistory struct {
	TestName      string
	HookName      string
	AverageRuntime float64
}

// TestHistory is a single test's reduced runtime history.
type TestHistory struct {
	TestName       string
	AverageRuntime float64
	Hooks          []HookHistory
}

// TaskHistory is the full per-task runtime map, keyed by logical test
// name (basename without extension).
type TaskHistory struct {
	SuiteName string
	TaskName  string
	TestMap   map[string]TestHistory
}

// Fetcher is the History service's contract, satisfied by *Service and by
// fakes in tests.
type Fetcher interface {
	GetTaskHistory(ctx context.Context, task, variant, suite string) (TaskHistory, error)
}

// Service implements Fetcher atop a Client.
type Service struct {
	Client  *Client
	Project string
}

func NewService(client *Client, project string) *Service {
	return &Service{Client: client, Project: project}
}

var _ Fetcher = (*Service)(nil)

// GetTaskHistory implements spec §4.4's protocol: a 14-day window, hook-
// vs-test separation by ":" in test_file, and summing avg_duration_pass
// across records that collide on logical test name.
func (s *Service) GetTaskHistory(ctx context.Context, task, variant, suite string) (TaskHistory, error) {
	today := time.Now().UTC()
	startDate := today.AddDate(0, 0, -lookbackDays)

	records, err := s.Client.getTestStats(ctx, s.Project, testStatsRequest{
		AfterDate:    startDate.Format("2006-01-02"),
		BeforeDate:   today.Format("2006-01-02"),
		GroupNumDays: lookbackDays,
		Variants:     variant,
		Tasks:        task,
	})
	if err != nil {
		return TaskHistory{}, err
	}

	return reduce(suite, task, records), nil
}

func isHook(testFile string) bool {
	return strings.Contains(testFile, ":")
}

func hookTestName(testFile string) string {
	parts := strings.SplitN(testFile, ":", 2)
	return LogicalTestName(parts[0])
}

func hookHookName(testFile string) string {
	idx := strings.LastIndex(testFile, ":")
	if idx < 0 {
		return testFile
	}
	return testFile[idx+1:]
}

// LogicalTestName derives the splitter's join key: the final path
// segment with a trailing ".js" trimmed.
func LogicalTestName(testFile string) string {
	base := path.Base(testFile)
	return strings.TrimSuffix(base, ".js")
}

func reduce(suite, task string, records []testStatRecord) TaskHistory {
	hooksByTest := map[string][]HookHistory{}
	for _, rec := range records {
		if !isHook(rec.TestFile) {
			continue
		}
		testName := hookTestName(rec.TestFile)
		hooksByTest[testName] = append(hooksByTest[testName], HookHistory{
			TestName:       testName,
			HookName:       hookHookName(rec.TestFile),
			AverageRuntime: rec.AvgDurationPass,
		})
	}

	testMap := map[string]TestHistory{}
	for _, rec := range records {
		if isHook(rec.TestFile) {
			continue
		}
		logicalName := LogicalTestName(rec.TestFile)

		existing, ok := testMap[logicalName]
		if ok {
			existing.AverageRuntime += rec.AvgDurationPass
			testMap[logicalName] = existing
			continue
		}

		testMap[logicalName] = TestHistory{
			TestName:       rec.TestFile,
			AverageRuntime: rec.AvgDurationPass,
			Hooks:          hooksByTest[logicalName],
		}
	}

	return TaskHistory{SuiteName: suite, TaskName: task, TestMap: testMap}
}
