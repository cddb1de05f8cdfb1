package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/testutil"
	"github.com/ignatzorin/freelance-orders/internal/testutil/memstore"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
	"github.com/ignatzorin/freelance-orders/internal/usecase/proposal"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Execute(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordJob(job string, affected int64, err error) {
	m.Called(job, affected, err)
}

func TestRun_RecordsResult(t *testing.T) {
	logger.Discard()
	expirer := new(mockExpirer)
	rec := new(mockRecorder)
	boom := errors.New("db down")

	expirer.On("Execute", mock.Anything).Return(int64(2), nil).Once()
	expirer.On("Execute", mock.Anything).Return(int64(0), boom).Once()
	rec.On("RecordJob", "proposal_sweep", int64(2), nil).Once()
	rec.On("RecordJob", "proposal_sweep", int64(0), boom).Once()

	job := NewProposalSweepJob(expirer, rec, "")
	job.Run(context.Background())
	job.Run(context.Background())

	expirer.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	job := NewProposalSweepJob(new(mockExpirer), nil, "не расписание")
	assert.Error(t, job.Start())
}

func TestRun_ExpiresStaleProposals(t *testing.T) {
	logger.Discard()
	store := memstore.New()
	clock := testutil.NewFixedClock(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
	gigID := store.SeedGig(testutil.ActiveGig(), testutil.BasicPackage())

	p := store.SeedProposal(testutil.PendingProposal(gigID, clock.Now().Add(-time.Hour)))
	deps := common.Deps{Store: store, Now: clock.Now}

	NewProposalSweepJob(proposal.NewExpireProposalsUseCase(deps), nil, "").Run(context.Background())
	assert.Equal(t, valueobject.ProposalStatusExpired, store.Proposal(p).Status)
}
