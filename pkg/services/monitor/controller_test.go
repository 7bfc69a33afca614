package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/models/store"
	"github.com/de-tools/sync-sentinel/pkg/services/partition"
	"github.com/de-tools/sync-sentinel/pkg/services/severity"
	"github.com/de-tools/sync-sentinel/pkg/services/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchSource(ctx context.Context, table domain.Table) (domain.SourceSnapshot, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(domain.SourceSnapshot), args.Error(1)
}

func (m *mockProvider) FetchLake(ctx context.Context, table domain.Table) (domain.LakeSnapshot, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(domain.LakeSnapshot), args.Error(1)
}

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Record(
	ctx context.Context,
	table domain.Table,
	report domain.MetricsReport,
	severity domain.Severity,
	triage *string,
	executionSeconds float64,
) (domain.AuditRun, error) {
	args := m.Called(ctx, table, report, severity, triage, executionSeconds)
	return args.Get(0).(domain.AuditRun), args.Error(1)
}

func (m *mockAuditStore) AttachIssues(ctx context.Context, table domain.Table, runID int64, issues []domain.DataQualityIssue) error {
	args := m.Called(ctx, table, runID, issues)
	return args.Error(0)
}

func (m *mockAuditStore) Latest(ctx context.Context, table domain.Table) (domain.AuditRun, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(domain.AuditRun), args.Error(1)
}

func (m *mockAuditStore) History(ctx context.Context, table domain.Table, limit int) ([]domain.AuditRun, error) {
	args := m.Called(ctx, table, limit)
	return args.Get(0).([]domain.AuditRun), args.Error(1)
}

func (m *mockAuditStore) Issues(ctx context.Context, table domain.Table, runID int64) ([]domain.DataQualityIssue, error) {
	args := m.Called(ctx, table, runID)
	return args.Get(0).([]domain.DataQualityIssue), args.Error(1)
}

func (m *mockAuditStore) QualitySummary(ctx context.Context, table domain.Table) ([]store.QualitySummary, error) {
	args := m.Called(ctx, table)
	return args.Get(0).([]store.QualitySummary), args.Error(1)
}

var testTable = domain.Table{Name: "hr.employees"}

func testSettings() Settings {
	return Settings{
		Thresholds:          severity.DefaultThresholds(),
		Policy:              partition.Daily{Days: 0},
		StuckThresholdHours: 24,
	}
}

func newTestController(provider SnapshotProvider, recorder *mockAuditStore) *Controller {
	ctrl := NewController(
		map[string]SnapshotProvider{testTable.Name: provider},
		recorder,
		nil,
		triage.NewEngine(),
		testSettings(),
	)
	ctrl.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return ctrl
}

func TestController_RunTable_RecordsClassifiedRun(t *testing.T) {
	asOf := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	provider := &mockProvider{}
	provider.On("FetchSource", mock.Anything, testTable).
		Return(domain.SourceSnapshot{Table: testTable, RowCount: 107, AsOf: asOf}, nil)
	provider.On("FetchLake", mock.Anything, testTable).
		Return(domain.LakeSnapshot{
			Table:    testTable,
			RowCount: 91,
			Partitions: []domain.PartitionRow{
				{Key: domain.PartitionKey{Year: 2025, Month: 6, Day: 10}, RowCount: 91, LastLoadAt: asOf},
			},
			AsOf: asOf,
		}, nil)

	recorder := &mockAuditStore{}
	recorder.On("Record",
		mock.Anything, testTable,
		mock.MatchedBy(func(r domain.MetricsReport) bool {
			return r.SyncGap == 16 && r.GapPercentage == 14.95
		}),
		domain.SeverityCritical,
		mock.MatchedBy(func(s *string) bool { return s != nil && *s != "" }),
		mock.Anything,
	).Return(domain.AuditRun{RunID: 1, Table: testTable, Severity: domain.SeverityCritical}, nil)
	recorder.On("AttachIssues", mock.Anything, testTable, int64(1), mock.Anything).Return(nil)

	ctrl := newTestController(provider, recorder)

	run, err := ctrl.RunTable(context.Background(), testTable)
	require.NoError(t, err)

	assert.Equal(t, int64(1), run.RunID)
	assert.Equal(t, domain.SeverityCritical, run.Severity)
	recorder.AssertExpectations(t)
}

func TestController_RunTable_DerivesIssuesFromFlags(t *testing.T) {
	asOf := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	provider := &mockProvider{}
	provider.On("FetchSource", mock.Anything, testTable).
		Return(domain.SourceSnapshot{Table: testTable, RowCount: 100, AsOf: asOf}, nil)
	provider.On("FetchLake", mock.Anything, testTable).
		Return(domain.LakeSnapshot{
			Table:    testTable,
			RowCount: 100,
			Partitions: []domain.PartitionRow{
				{
					Key: domain.PartitionKey{Year: 2025, Month: 6, Day: 9}, RowCount: 40,
					LastLoadAt: asOf,
					Flags:      []domain.QualityFlag{domain.FlagDuplicate, domain.FlagNullValue},
				},
				// stalled: last load two days before the source snapshot
				{
					Key: domain.PartitionKey{Year: 2025, Month: 6, Day: 8}, RowCount: 60,
					LastLoadAt: asOf.Add(-48 * time.Hour),
				},
			},
			AsOf: asOf,
		}, nil)

	recorder := &mockAuditStore{}
	recorder.On("Record", mock.Anything, testTable, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.AuditRun{RunID: 7, Table: testTable}, nil)
	recorder.On("AttachIssues", mock.Anything, testTable, int64(7),
		mock.MatchedBy(func(issues []domain.DataQualityIssue) bool {
			if len(issues) != 3 {
				return false
			}
			types := map[domain.IssueType]int{}
			for _, issue := range issues {
				if issue.IssueID == "" || issue.RecordID == "" {
					return false
				}
				types[issue.Type]++
			}
			return types[domain.IssueDuplicate] == 1 &&
				types[domain.IssueNullValue] == 1 &&
				types[domain.IssueOther] == 1
		}),
	).Return(nil)

	ctrl := newTestController(provider, recorder)

	_, err := ctrl.RunTable(context.Background(), testTable)
	require.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestController_RunTable_UnknownTable(t *testing.T) {
	recorder := &mockAuditStore{}
	ctrl := newTestController(&mockProvider{}, recorder)

	_, err := ctrl.RunTable(context.Background(), domain.Table{Name: "sales.orders"})

	assert.ErrorIs(t, err, domain.ErrTableNotFound)
	recorder.AssertNotCalled(t, "Record")
}

func TestController_RunTable_SnapshotFailureLeavesAuditUntouched(t *testing.T) {
	provider := &mockProvider{}
	provider.On("FetchSource", mock.Anything, testTable).
		Return(domain.SourceSnapshot{}, domain.ErrSnapshotUnavailable)

	recorder := &mockAuditStore{}
	ctrl := newTestController(provider, recorder)

	_, err := ctrl.RunTable(context.Background(), testTable)

	assert.ErrorIs(t, err, domain.ErrSnapshotUnavailable)
	recorder.AssertNotCalled(t, "Record")
	recorder.AssertNotCalled(t, "AttachIssues")
}

func TestController_RunTable_AttachFailureFailsTheRun(t *testing.T) {
	asOf := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	provider := &mockProvider{}
	provider.On("FetchSource", mock.Anything, testTable).
		Return(domain.SourceSnapshot{Table: testTable, RowCount: 10, AsOf: asOf}, nil)
	provider.On("FetchLake", mock.Anything, testTable).
		Return(domain.LakeSnapshot{
			Table:    testTable,
			RowCount: 10,
			Partitions: []domain.PartitionRow{
				{Key: domain.PartitionKey{Year: 2025, Month: 6, Day: 10}, RowCount: 10, LastLoadAt: asOf},
			},
			AsOf: asOf,
		}, nil)

	recorder := &mockAuditStore{}
	recorder.On("Record", mock.Anything, testTable, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.AuditRun{RunID: 3, Table: testTable}, nil)
	recorder.On("AttachIssues", mock.Anything, testTable, int64(3), mock.Anything).
		Return(errors.New("insert failed"))

	ctrl := newTestController(provider, recorder)

	_, err := ctrl.RunTable(context.Background(), testTable)
	assert.ErrorContains(t, err, "attach issues")
}

func TestController_RunAll(t *testing.T) {
	asOf := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	healthy := &mockProvider{}
	healthy.On("FetchSource", mock.Anything, mock.Anything).
		Return(domain.SourceSnapshot{RowCount: 10, AsOf: asOf}, nil)
	healthy.On("FetchLake", mock.Anything, mock.Anything).
		Return(domain.LakeSnapshot{
			RowCount: 10,
			Partitions: []domain.PartitionRow{
				{Key: domain.PartitionKey{Year: 2025, Month: 6, Day: 10}, RowCount: 10, LastLoadAt: asOf},
			},
			AsOf: asOf,
		}, nil)

	broken := &mockProvider{}
	broken.On("FetchSource", mock.Anything, mock.Anything).
		Return(domain.SourceSnapshot{}, domain.ErrSnapshotUnavailable)

	recorder := &mockAuditStore{}
	recorder.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.AuditRun{RunID: 1}, nil)
	recorder.On("AttachIssues", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctrl := NewController(
		map[string]SnapshotProvider{
			"hr.employees": healthy,
			"sales.orders": broken,
		},
		recorder,
		nil,
		triage.NewEngine(),
		testSettings(),
	)

	results := ctrl.RunAll(context.Background())
	require.Len(t, results, 2)

	byTable := map[string]RunResult{}
	for _, r := range results {
		byTable[r.Table.Name] = r
	}
	assert.NoError(t, byTable["hr.employees"].Err)
	assert.ErrorIs(t, byTable["sales.orders"].Err, domain.ErrSnapshotUnavailable)
}
