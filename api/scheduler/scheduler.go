package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/ledger"
	"github.com/linesmerrill/relief-portal-api/models"
	"github.com/linesmerrill/relief-portal-api/moderation"
	"github.com/linesmerrill/relief-portal-api/notify"
	templates "github.com/linesmerrill/relief-portal-api/templates/html"
)

// Job lock names
const (
	digestJob    = "reported_donation_digest"
	reconcileJob = "fund_reconciliation"
)

// digestWindow is how far back the digest looks for reported donations
const digestWindow = 24 * time.Hour

// Scheduler runs the periodic background jobs: the admin digest of reported
// donations and the fund balance reconciliation. Each run takes a lock so only
// one instance executes it.
type Scheduler struct {
	cron              *cron.Cron
	Ledger            *ledger.Service
	Moderation        *moderation.Service
	Users             databases.UserDatabase
	Locks             databases.SchedulerLockDatabase
	Mailer            notify.Mailer
	InstanceID        string
	DigestSchedule    string
	ReconcileSchedule string
	DashboardURL      string
	Now               func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	s.cron = cron.New(cron.WithLocation(time.UTC))

	// Send the reported donation digest, daily at 6 AM UTC by default
	_, err := s.cron.AddFunc(s.DigestSchedule, func() {
		s.runLocked(digestJob, 10*time.Minute, s.SendDigest)
	})
	if err != nil {
		zap.S().Errorw("failed to register digest job", "schedule", s.DigestSchedule, "error", err)
	}

	// Cross-check fund balances, hourly by default
	_, err = s.cron.AddFunc(s.ReconcileSchedule, func() {
		s.runLocked(reconcileJob, 10*time.Minute, s.reconcile)
	})
	if err != nil {
		zap.S().Errorw("failed to register reconciliation job", "schedule", s.ReconcileSchedule, "error", err)
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.InstanceID)
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// runLocked runs job under the distributed lock name. Another instance
// holding the lock makes this run a no-op.
func (s *Scheduler) runLocked(name string, ttl time.Duration, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.Locks.TryAcquireLock(ctx, name, s.InstanceID, ttl)
	if err != nil {
		zap.S().Errorw("failed to acquire job lock", "job", name, "error", err)
		return
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", name)
		return
	}
	defer func() {
		if err := s.Locks.ReleaseLock(context.Background(), name, s.InstanceID); err != nil {
			zap.S().Warnw("failed to release job lock", "job", name, "error", err)
		}
	}()

	start := time.Now()
	if err := job(ctx); err != nil {
		zap.S().Errorw("job failed", "job", name, "instance", s.InstanceID, "error", err)
		return
	}
	zap.S().Infow("job finished", "job", name, "instance", s.InstanceID, "duration", time.Since(start))
}

// SendDigest e-mails every active admin the donations reported in the last
// day along with the moderation backlog
func (s *Scheduler) SendDigest(ctx context.Context) error {
	since := s.now().Add(-digestWindow)
	reported, err := s.Ledger.ReportedSince(ctx, since)
	if err != nil {
		return err
	}
	pendingArticles, err := s.Moderation.PendingArticles(ctx)
	if err != nil {
		return err
	}
	pendingGallery, err := s.Moderation.PendingGallery(ctx)
	if err != nil {
		return err
	}

	admins, err := s.Users.Find(ctx, bson.M{"role": models.RoleAdmin, "status": models.UserActive})
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		zap.S().Warn("no active admins to send the digest to")
		return nil
	}

	rows, err := s.digestRows(ctx, reported)
	if err != nil {
		return err
	}
	digest := templates.Digest{
		Since:           since,
		Reported:        rows,
		PendingArticles: pendingArticles,
		PendingGallery:  pendingGallery,
		DashboardURL:    s.DashboardURL,
	}

	to := make([]notify.Recipient, 0, len(admins))
	for _, a := range admins {
		to = append(to, notify.Recipient{Name: a.FullName, Email: a.Email})
	}
	return s.Mailer.Send(ctx, notify.Message{
		To:      to,
		Subject: digest.Subject(),
		Plain:   templates.RenderDigestText(digest),
		HTML:    templates.RenderDigestHTML(digest),
	})
}

// digestRows joins reported transactions with the nominee and victim
// snapshots of their applications
func (s *Scheduler) digestRows(ctx context.Context, txs []models.FundTransaction) ([]templates.DigestRow, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ApplicationID)
	}
	apps, err := s.Ledger.Applications.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.FundApplication, len(apps))
	for _, a := range apps {
		byID[a.ID] = a
	}

	rows := make([]templates.DigestRow, 0, len(txs))
	for _, tx := range txs {
		row := templates.DigestRow{
			VictimID:   tx.VictimID.Hex(),
			Nominee:    tx.NomineeID.Hex(),
			Amount:     tx.Amount.StringFixed(2),
			Reason:     tx.Note,
			ReportedAt: tx.CreatedAt,
		}
		if a, ok := byID[tx.ApplicationID]; ok {
			row.VictimID = a.VictimSnapshot.VictimID
			row.Nominee = a.NomineeSnapshot.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// reconcile logs every fund whose available amount drifted from its applications
func (s *Scheduler) reconcile(ctx context.Context) error {
	drifted, err := s.Ledger.Reconcile(ctx)
	if err != nil {
		return err
	}
	for _, d := range drifted {
		zap.S().Warnw("fund balance mismatch",
			"fund", d.Fund.ID.Hex(),
			"pledged", d.Fund.PledgedAmount.String(),
			"stored", d.Fund.Amount.String(),
			"expected", d.Expected.String(),
		)
	}
	return nil
}
