// Package jobs фоновые задачи по расписанию.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/logger"
)

const DefaultSweepSpec = "@every 10m"

// Expirer помечает истёкшими просроченные предложения.
type Expirer interface {
	Execute(ctx context.Context) (int64, error)
}

type Recorder interface {
	RecordJob(job string, affected int64, err error)
}

// ProposalSweepJob периодически закрывает просроченные предложения.
// Ленивое истечение при чтении работает и без неё, задача только держит таблицу в порядке.
type ProposalSweepJob struct {
	expirer Expirer
	metrics Recorder
	cron    *cron.Cron
	spec    string
	timeout time.Duration
}

func NewProposalSweepJob(expirer Expirer, metrics Recorder, spec string) *ProposalSweepJob {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	return &ProposalSweepJob{
		expirer: expirer,
		metrics: metrics,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:    spec,
		timeout: time.Minute,
	}
}

func (j *ProposalSweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	logger.Log.WithField("spec", j.spec).Info("задача истечения предложений запущена")
	return nil
}

// Stop ждёт завершения текущего запуска.
func (j *ProposalSweepJob) Stop() {
	<-j.cron.Stop().Done()
	logger.Log.Info("задача истечения предложений остановлена")
}

// Run один проход. Вызывается cron-ом и из тестов.
func (j *ProposalSweepJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	n, err := j.expirer.Execute(ctx)
	if j.metrics != nil {
		j.metrics.RecordJob("proposal_sweep", n, err)
	}

	fields := logrus.Fields{"expired": n, "duration_ms": time.Since(started).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		logger.Log.WithFields(fields).Error("не удалось закрыть просроченные предложения")
		return
	}
	if n > 0 {
		logger.Log.WithFields(fields).Info("просроченные предложения закрыты")
	}
}
