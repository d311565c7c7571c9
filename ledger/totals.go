package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/models"
)

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// FinancialSupport sums what a victim has received. The total is computed from
// the transactions on every call.
func (s *Service) FinancialSupport(ctx context.Context, victimIDOrCode string) (*models.FinancialSupport, error) {
	victim, err := s.Victims.FindByIDOrCode(ctx, victimIDOrCode)
	if err != nil {
		return nil, notFound(err, "victim not found")
	}

	txs, err := s.Transactions.Find(ctx, bson.M{"victimId": victim.ID}, newestFirst())
	if err != nil {
		return nil, err
	}

	total := models.NewMoney(0)
	for _, tx := range txs {
		if tx.Status == models.ApplicationReceived {
			total = total.Add(tx.Amount)
		}
	}
	return &models.FinancialSupport{
		VictimID:      victimIDOrCode,
		TotalReceived: total,
		Transactions:  txs,
	}, nil
}

// ReportedDonations lists the disbursements nominees reported as not received
func (s *Service) ReportedDonations(ctx context.Context, actor models.Actor) ([]models.FundTransaction, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, apperrors.New(apperrors.Unauthorized, "only admins can see reported donations")
	}
	return s.Transactions.Find(ctx, bson.M{"status": models.ApplicationReported}, newestFirst())
}

// ReportedSince lists reported disbursements created at or after since
func (s *Service) ReportedSince(ctx context.Context, since time.Time) ([]models.FundTransaction, error) {
	return s.Transactions.Find(ctx,
		bson.M{"status": models.ApplicationReported, "createdAt": bson.M{"$gte": since}},
		newestFirst())
}

// Discrepancy is a fund whose stored available amount differs from what its
// applications imply
type Discrepancy struct {
	Fund     models.Fund
	Expected models.Money
}

var debitingStatuses = []string{
	models.ApplicationApproved,
	models.ApplicationReceived,
	models.ApplicationReported,
}

// Reconcile recomputes every fund's available amount as the pledge minus the
// applications approved against it, clamped at zero, and returns the funds
// whose stored amount disagrees.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	funds, err := s.Funds.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, f := range funds {
		apps, err := s.Applications.Find(ctx, bson.M{"fundId": f.ID, "status": bson.M{"$in": debitingStatuses}})
		if err != nil {
			return nil, err
		}
		expected := f.PledgedAmount
		for _, a := range apps {
			expected = expected.SubClamped(a.RequestedAmount)
		}
		if !expected.Equal(f.Amount) {
			out = append(out, Discrepancy{Fund: f, Expected: expected})
		}
	}
	return out, nil
}
