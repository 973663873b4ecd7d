package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"laurel/internal/expiry/models"
	id "laurel/pkg/domain"
)

type sweepPage struct {
	result *models.SweepResult
	next   id.CertificateID
	err    error
}

type schedulePage struct {
	scheduled int
	next      id.CertificateID
	err       error
}

type mockLifecycle struct {
	sweepPages    []sweepPage
	schedulePages []schedulePage

	deliveredToReturn int
	deliverErr        error

	sweepCalls    int
	scheduleCalls int
	deliverCalls  int

	// Capture cursors to verify the worker follows pagination.
	sweepCursors []id.CertificateID
}

func (m *mockLifecycle) SweepDue(_ context.Context, after id.CertificateID, _ int) (*models.SweepResult, id.CertificateID, error) {
	m.sweepCalls++
	m.sweepCursors = append(m.sweepCursors, after)
	if len(m.sweepPages) == 0 {
		return &models.SweepResult{}, id.CertificateID{}, nil
	}
	page := m.sweepPages[0]
	m.sweepPages = m.sweepPages[1:]
	return page.result, page.next, page.err
}

func (m *mockLifecycle) ScheduleUpcoming(_ context.Context, _ id.CertificateID, _ int) (int, id.CertificateID, error) {
	m.scheduleCalls++
	if len(m.schedulePages) == 0 {
		return 0, id.CertificateID{}, nil
	}
	page := m.schedulePages[0]
	m.schedulePages = m.schedulePages[1:]
	return page.scheduled, page.next, page.err
}

func (m *mockLifecycle) DeliverDueNotices(_ context.Context, _ int) (int, error) {
	m.deliverCalls++
	return m.deliveredToReturn, m.deliverErr
}

type mockApprovals struct {
	expiredToReturn int
	errToReturn     error

	calls      int
	lastCaller id.UserID
}

func (m *mockApprovals) ExpireStale(_ context.Context, caller id.UserID) (int, error) {
	m.calls++
	m.lastCaller = caller
	return m.expiredToReturn, m.errToReturn
}

type SweeperSuite struct {
	suite.Suite
	lifecycle *mockLifecycle
	approvals *mockApprovals
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	s.lifecycle = &mockLifecycle{}
	s.approvals = &mockApprovals{}
}

func (s *SweeperSuite) TestRunOnceAggregatesAllPhases() {
	s.lifecycle.sweepPages = []sweepPage{
		{result: &models.SweepResult{BatchSize: 4, Expired: 3, Skipped: 1}},
	}
	s.lifecycle.schedulePages = []schedulePage{{scheduled: 2}}
	s.lifecycle.deliveredToReturn = 5
	s.approvals.expiredToReturn = 1

	res := New(s.lifecycle, s.approvals).RunOnce(context.Background())

	s.Equal(3, res.Expired)
	s.Equal(1, res.Skipped)
	s.Equal(2, res.NoticesScheduled)
	s.Equal(5, res.NoticesDelivered)
	s.Equal(1, res.ProposalsExpired)
	s.Equal(0, res.Failures)
}

func (s *SweeperSuite) TestRunOnceFollowsSweepCursors() {
	first := id.NewCertificateID()
	second := id.NewCertificateID()
	s.lifecycle.sweepPages = []sweepPage{
		{result: &models.SweepResult{BatchSize: 2, Expired: 2}, next: first},
		{result: &models.SweepResult{BatchSize: 2, Expired: 2}, next: second},
		{result: &models.SweepResult{BatchSize: 1, Expired: 1}},
	}

	res := New(s.lifecycle, s.approvals).RunOnce(context.Background())

	s.Equal(5, res.Expired)
	s.Equal(3, s.lifecycle.sweepCalls, "the phase walks every page in one pass")
	s.Equal([]id.CertificateID{{}, first, second}, s.lifecycle.sweepCursors,
		"each page resumes from the previous page's cursor")
}

func (s *SweeperSuite) TestRunOnceCapsPagesPerPass() {
	cursor := id.NewCertificateID()
	for i := 0; i < 20; i++ {
		s.lifecycle.sweepPages = append(s.lifecycle.sweepPages, sweepPage{
			result: &models.SweepResult{BatchSize: 1, Expired: 1},
			next:   cursor,
		})
	}

	res := New(s.lifecycle, s.approvals, WithMaxPages(3)).RunOnce(context.Background())

	s.Equal(3, s.lifecycle.sweepCalls, "an endless backlog cannot monopolize a pass")
	s.Equal(3, res.Expired)
	s.Equal(0, res.Failures, "hitting the page cap is not a failure")
}

func (s *SweeperSuite) TestRunOncePhaseFailureDoesNotStopThePass() {
	s.lifecycle.sweepPages = []sweepPage{{err: errors.New("store down")}}
	s.lifecycle.schedulePages = []schedulePage{{scheduled: 1}}
	s.lifecycle.deliveredToReturn = 2
	s.approvals.expiredToReturn = 1

	res := New(s.lifecycle, s.approvals).RunOnce(context.Background())

	s.Equal(1, res.Failures)
	s.Equal(0, res.Expired)
	s.Equal(1, res.NoticesScheduled, "later phases still run after a failure")
	s.Equal(2, res.NoticesDelivered)
	s.Equal(1, res.ProposalsExpired)
}

func (s *SweeperSuite) TestRunOnceCountsEveryFailedPhase() {
	s.lifecycle.sweepPages = []sweepPage{{err: errors.New("sweep down")}}
	s.lifecycle.schedulePages = []schedulePage{{err: errors.New("schedule down")}}
	s.lifecycle.deliverErr = errors.New("deliver down")
	s.approvals.errToReturn = errors.New("approvals down")

	res := New(s.lifecycle, s.approvals).RunOnce(context.Background())

	s.Equal(4, res.Failures)
	s.Equal(1, s.lifecycle.sweepCalls)
	s.Equal(1, s.lifecycle.scheduleCalls)
	s.Equal(1, s.lifecycle.deliverCalls)
	s.Equal(1, s.approvals.calls)
}

func (s *SweeperSuite) TestRunOnceLapsesProposalsAsSystem() {
	s.approvals.expiredToReturn = 2

	res := New(s.lifecycle, s.approvals).RunOnce(context.Background())

	s.Equal(2, res.ProposalsExpired)
	s.True(s.approvals.lastCaller.IsNil(), "the scheduled pass acts as the system, not a user")
}

func (s *SweeperSuite) TestStartStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(s.lifecycle, s.approvals, WithInterval(time.Hour)).Start(ctx)

	s.ErrorIs(err, context.Canceled)
	s.Equal(0, s.lifecycle.sweepCalls, "no pass runs before the first tick")
}
