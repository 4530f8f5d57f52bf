package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/metrics"
)

type schedulerFixture struct {
	accounts   []*core.Account
	due        map[uuid.UUID][]*core.Domain
	incomplete map[uuid.UUID]bool

	calls      []string
	marked     []uuid.UUID
	batches    []*core.CheckBatch
	lastForce  bool
	lastLimit  int
	abandonedN int64
}

func (f *schedulerFixture) AccountsWithDomains(ctx context.Context) ([]*core.Account, error) {
	return f.accounts, nil
}

func (f *schedulerFixture) DueDomains(ctx context.Context, accountID uuid.UUID, intervalMinutes, limit int, force bool) ([]*core.Domain, error) {
	f.lastForce = force
	f.lastLimit = limit
	due := f.due[accountID]
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *schedulerFixture) MarkPending(ctx context.Context, ids []uuid.UUID, now time.Time) error {
	f.calls = append(f.calls, "mark_pending")
	f.marked = append(f.marked, ids...)
	return nil
}

func (f *schedulerFixture) HasIncompleteBatch(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return f.incomplete[accountID], nil
}

func (f *schedulerFixture) CreateBatch(ctx context.Context, batch *core.CheckBatch) error {
	f.calls = append(f.calls, "create_batch")
	f.batches = append(f.batches, batch)
	return nil
}

func (f *schedulerFixture) AbandonStaleBatches(ctx context.Context, olderThan time.Time) (int64, error) {
	return f.abandonedN, nil
}

type fixedPolicy struct{ minutes int }

func (p fixedPolicy) CheckIntervalMinutes(ctx context.Context, accountID uuid.UUID) int {
	return p.minutes
}

type fakeLease struct {
	acquired bool
	released bool
}

func (l *fakeLease) Acquire(ctx context.Context) (bool, error) { return l.acquired, nil }
func (l *fakeLease) Release(ctx context.Context) error         { l.released = true; return nil }

type captureDispatcher struct {
	fixture    *schedulerFixture
	name       string
	dispatched [][]*core.Domain
}

func (d *captureDispatcher) Dispatch(ctx context.Context, domains []*core.Domain) error {
	if d.fixture != nil {
		d.fixture.calls = append(d.fixture.calls, "dispatch_"+d.name)
	}
	d.dispatched = append(d.dispatched, domains)
	return nil
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Identity:        "scheduler",
		BatchSize:       500,
		StaleBatchAfter: 2 * time.Hour,
	}
}

func newTestScheduler(fixture *schedulerFixture, lease *fakeLease, local, offload *captureDispatcher) *Scheduler {
	return NewScheduler(
		fixture,
		fixedPolicy{minutes: 30},
		lease,
		local,
		offload,
		nil,
		metrics.NewCollector(prometheus.NewRegistry()),
		testConfig(),
		zap.NewNop(),
	)
}

func localAccount() *core.Account {
	return &core.Account{ID: uuid.New(), Name: "acme", CheckMode: core.CheckModeLocal}
}

func TestTickSchedulesDueDomains(t *testing.T) {
	account := localAccount()
	due := []*core.Domain{
		{ID: uuid.New(), AccountID: account.ID, Name: "a.com"},
		{ID: uuid.New(), AccountID: account.ID, Name: "b.com"},
	}
	fixture := &schedulerFixture{
		accounts: []*core.Account{account},
		due:      map[uuid.UUID][]*core.Domain{account.ID: due},
	}
	lease := &fakeLease{acquired: true}
	local := &captureDispatcher{fixture: fixture, name: "local"}
	offload := &captureDispatcher{fixture: fixture, name: "offload"}

	sched := newTestScheduler(fixture, lease, local, offload)
	require.NoError(t, sched.Tick(context.Background(), false))

	// Pending is written before the batch record, which precedes
	// dispatch.
	require.Equal(t, []string{"mark_pending", "create_batch", "dispatch_local"}, fixture.calls)
	require.Len(t, fixture.marked, 2)
	require.Empty(t, offload.dispatched)

	require.Len(t, fixture.batches, 1)
	require.Equal(t, account.ID, fixture.batches[0].AccountID)
	require.Equal(t, core.BatchScheduled, fixture.batches[0].Status)
	require.Equal(t, 2, fixture.batches[0].TotalDomains)

	require.True(t, lease.released)
	require.False(t, fixture.lastForce)
	require.Equal(t, 500, fixture.lastLimit)
}

func TestTickSkippedWithoutLease(t *testing.T) {
	account := localAccount()
	fixture := &schedulerFixture{
		accounts: []*core.Account{account},
		due: map[uuid.UUID][]*core.Domain{
			account.ID: {{ID: uuid.New(), AccountID: account.ID, Name: "a.com"}},
		},
	}
	lease := &fakeLease{acquired: false}
	local := &captureDispatcher{fixture: fixture, name: "local"}

	sched := newTestScheduler(fixture, lease, local, &captureDispatcher{name: "offload"})
	require.NoError(t, sched.Tick(context.Background(), false))

	require.Empty(t, fixture.calls, "a skipped tick must not touch the store")
	require.False(t, lease.released)
}

func TestTickSkipsAccountWithInFlightBatch(t *testing.T) {
	account := localAccount()
	fixture := &schedulerFixture{
		accounts: []*core.Account{account},
		due: map[uuid.UUID][]*core.Domain{
			account.ID: {{ID: uuid.New(), AccountID: account.ID, Name: "a.com"}},
		},
		incomplete: map[uuid.UUID]bool{account.ID: true},
	}
	lease := &fakeLease{acquired: true}
	local := &captureDispatcher{fixture: fixture, name: "local"}

	sched := newTestScheduler(fixture, lease, local, &captureDispatcher{name: "offload"})
	require.NoError(t, sched.Tick(context.Background(), false))

	require.Empty(t, fixture.marked, "no double-queue while a batch is in flight")
	require.Empty(t, local.dispatched)
}

func TestForcedTickBypassesInFlightBatch(t *testing.T) {
	account := localAccount()
	fixture := &schedulerFixture{
		accounts: []*core.Account{account},
		due: map[uuid.UUID][]*core.Domain{
			account.ID: {{ID: uuid.New(), AccountID: account.ID, Name: "a.com"}},
		},
		incomplete: map[uuid.UUID]bool{account.ID: true},
	}
	lease := &fakeLease{acquired: true}
	local := &captureDispatcher{fixture: fixture, name: "local"}

	sched := newTestScheduler(fixture, lease, local, &captureDispatcher{name: "offload"})
	require.NoError(t, sched.Tick(context.Background(), true))

	require.Len(t, fixture.marked, 1)
	require.True(t, fixture.lastForce, "force must reach due selection")
	require.Len(t, local.dispatched, 1)
}

func TestTickRoutesOffloadAccounts(t *testing.T) {
	account := localAccount()
	account.CheckMode = core.CheckModeOffload
	fixture := &schedulerFixture{
		accounts: []*core.Account{account},
		due: map[uuid.UUID][]*core.Domain{
			account.ID: {{ID: uuid.New(), AccountID: account.ID, Name: "a.com"}},
		},
	}
	lease := &fakeLease{acquired: true}
	local := &captureDispatcher{fixture: fixture, name: "local"}
	offload := &captureDispatcher{fixture: fixture, name: "offload"}

	sched := newTestScheduler(fixture, lease, local, offload)
	require.NoError(t, sched.Tick(context.Background(), false))

	require.Empty(t, local.dispatched)
	require.Len(t, offload.dispatched, 1)
}

func TestTickNoDueDomains(t *testing.T) {
	account := localAccount()
	fixture := &schedulerFixture{accounts: []*core.Account{account}}
	lease := &fakeLease{acquired: true}

	sched := newTestScheduler(fixture, lease, &captureDispatcher{name: "local"}, &captureDispatcher{name: "offload"})
	require.NoError(t, sched.Tick(context.Background(), false))

	require.Empty(t, fixture.calls)
	require.Empty(t, fixture.batches)
}

func TestSweepStaleBatches(t *testing.T) {
	fixture := &schedulerFixture{abandonedN: 3}
	lease := &fakeLease{acquired: true}

	sched := newTestScheduler(fixture, lease, &captureDispatcher{name: "local"}, &captureDispatcher{name: "offload"})
	sched.SweepStaleBatches(context.Background())
}
