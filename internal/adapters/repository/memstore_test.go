package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/revshare/internal/adapters/repository"
	"github.com/okian/revshare/internal/domain/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(ctx context.Context) *repository.MemStore {
	return repository.NewMemStore(ctx)
}

func TestMemStore_Deals(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newStore(ctx)

		Convey("When storing a deal without an id", func() {
			created, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Name: "d", Amount: dec("1000")})
			So(err, ShouldBeNil)

			Convey("Then the store assigns id, status and creation time", func() {
				So(created.ID, ShouldNotBeEmpty)
				So(created.Status, ShouldEqual, model.DealOpen)
				So(created.CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And it is retrievable by id and by org", func() {
				got, err := store.Deal(ctx, created.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, created.ID)

				deals, err := store.DealsByOrg(ctx, "org-1")
				So(err, ShouldBeNil)
				So(deals, ShouldHaveLength, 1)
			})
		})

		Convey("When storing a deal without an org", func() {
			_, err := store.PutDeal(ctx, model.Deal{Amount: dec("1000")})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When storing a deal with a non-positive amount", func() {
			_, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Amount: decimal.Zero})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When fetching a missing deal", func() {
			_, err := store.Deal(ctx, "nope")
			So(errors.Is(err, repository.ErrDealNotFound), ShouldBeTrue)
		})
	})
}

func TestMemStore_StatusTransitions(t *testing.T) {
	Convey("Given a stored open deal", t, func() {
		ctx := context.Background()
		store := newStore(ctx)
		created, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Amount: dec("5000")})
		So(err, ShouldBeNil)

		Convey("When closing it as won", func() {
			closedAt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
			won, err := store.PatchDealStatus(ctx, created.ID, model.DealWon, closedAt)
			So(err, ShouldBeNil)

			Convey("Then the status and close time are recorded", func() {
				So(won.Status, ShouldEqual, model.DealWon)
				So(won.ClosedAt.Equal(closedAt), ShouldBeTrue)
			})
		})

		Convey("When closing it as won without a close time", func() {
			won, err := store.PatchDealStatus(ctx, created.ID, model.DealWon, time.Time{})
			So(err, ShouldBeNil)
			So(won.ClosedAt.IsZero(), ShouldBeFalse)
		})

		Convey("When the deal is lost", func() {
			_, err := store.PatchDealStatus(ctx, created.ID, model.DealLost, time.Time{})
			So(err, ShouldBeNil)

			Convey("Then further transitions are refused", func() {
				_, err := store.PatchDealStatus(ctx, created.ID, model.DealWon, time.Time{})
				So(errors.Is(err, repository.ErrDealImmutable), ShouldBeTrue)
			})

			Convey("And replacing the deal record is refused", func() {
				lost, err := store.Deal(ctx, created.ID)
				So(err, ShouldBeNil)
				_, err = store.PutDeal(ctx, lost)
				So(errors.Is(err, repository.ErrDealImmutable), ShouldBeTrue)
			})
		})

		Convey("When patching with an unknown status", func() {
			_, err := store.PatchDealStatus(ctx, created.ID, model.DealStatus("archived"), time.Time{})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When patching a missing deal", func() {
			_, err := store.PatchDealStatus(ctx, "nope", model.DealWon, time.Time{})
			So(errors.Is(err, repository.ErrDealNotFound), ShouldBeTrue)
		})
	})
}

func TestMemStore_Touchpoints(t *testing.T) {
	Convey("Given a store with one deal", t, func() {
		ctx := context.Background()
		store := newStore(ctx)
		deal, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Amount: dec("5000")})
		So(err, ShouldBeNil)

		Convey("When appending touchpoints", func() {
			early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			late := early.Add(48 * time.Hour)

			second, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID, PartnerID: "partner-b", Type: model.TouchCoSell, CreatedAt: late})
			So(err, ShouldBeNil)
			first, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID, PartnerID: "partner-a", Type: model.TouchRegistration, CreatedAt: early})
			So(err, ShouldBeNil)

			Convey("Then sequence numbers are monotonically assigned", func() {
				So(second.Seq, ShouldEqual, 1)
				So(first.Seq, ShouldEqual, 2)
			})

			Convey("And reads come back ordered by timestamp", func() {
				touches, err := store.TouchpointsByDeal(ctx, deal.ID)
				So(err, ShouldBeNil)
				So(touches, ShouldHaveLength, 2)
				So(touches[0].PartnerID, ShouldEqual, "partner-a")
				So(touches[1].PartnerID, ShouldEqual, "partner-b")
			})

			Convey("And org-wide reads include them", func() {
				touches, err := store.TouchpointsByOrg(ctx, "org-1")
				So(err, ShouldBeNil)
				So(touches, ShouldHaveLength, 2)
			})
		})

		Convey("When timestamps tie", func() {
			at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			a, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID, PartnerID: "partner-a", Type: model.TouchIntro, CreatedAt: at})
			So(err, ShouldBeNil)
			b, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID, PartnerID: "partner-b", Type: model.TouchIntro, CreatedAt: at})
			So(err, ShouldBeNil)

			Convey("Then insertion sequence decides the order", func() {
				touches, err := store.TouchpointsByDeal(ctx, deal.ID)
				So(err, ShouldBeNil)
				So(touches[0].ID, ShouldEqual, a.ID)
				So(touches[1].ID, ShouldEqual, b.ID)
			})
		})

		Convey("When the deal does not exist", func() {
			_, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: "nope", PartnerID: "partner-a"})
			So(errors.Is(err, repository.ErrDealNotFound), ShouldBeTrue)
		})

		Convey("When the partner id is missing", func() {
			_, err := store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestMemStore_Rules(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newStore(ctx)

		Convey("When inserting rules out of priority order", func() {
			low, err := store.PutRule(ctx, model.CommissionRule{OrgID: "org-1", Name: "low", Rate: dec("0.05"), Priority: 5})
			So(err, ShouldBeNil)
			high, err := store.PutRule(ctx, model.CommissionRule{OrgID: "org-1", Name: "high", Rate: dec("0.10"), Priority: 1})
			So(err, ShouldBeNil)

			Convey("Then sequence reflects insertion order", func() {
				So(low.Seq, ShouldEqual, 1)
				So(high.Seq, ShouldEqual, 2)
			})

			Convey("And reads come back sorted by priority", func() {
				rules, err := store.RulesByOrg(ctx, "org-1")
				So(err, ShouldBeNil)
				So(rules[0].Name, ShouldEqual, "high")
				So(rules[1].Name, ShouldEqual, "low")
			})
		})

		Convey("When a rule rate is out of range", func() {
			_, err := store.PutRule(ctx, model.CommissionRule{OrgID: "org-1", Rate: dec("1.5")})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestMemStore_Attributions(t *testing.T) {
	Convey("Given a store with one deal", t, func() {
		ctx := context.Background()
		store := newStore(ctx)
		deal, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Amount: dec("10000")})
		So(err, ShouldBeNil)

		rows := []model.Attribution{
			{ID: "a-1", DealID: deal.ID, PartnerID: "partner-a", Model: "role_based", Percentage: 66.67, Amount: dec("6667.00")},
			{ID: "a-2", DealID: deal.ID, PartnerID: "partner-b", Model: "role_based", Percentage: 33.33, Amount: dec("3333.00")},
		}

		Convey("When replacing the pair's rows", func() {
			So(store.ReplaceAttributions(ctx, deal.ID, "role_based", rows), ShouldBeNil)

			Convey("Then the rows read back for that model", func() {
				got, err := store.AttributionsByDeal(ctx, deal.ID, "role_based")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
			})

			Convey("And other models remain empty", func() {
				got, err := store.AttributionsByDeal(ctx, deal.ID, "equal_split")
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})

			Convey("And a second replace swaps, not appends", func() {
				So(store.ReplaceAttributions(ctx, deal.ID, "role_based", rows[:1]), ShouldBeNil)
				got, err := store.AttributionsByDeal(ctx, deal.ID, "role_based")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})

			Convey("And replacing with no rows clears the pair", func() {
				So(store.ReplaceAttributions(ctx, deal.ID, "role_based", nil), ShouldBeNil)
				got, err := store.AttributionsByDeal(ctx, deal.ID, "role_based")
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})

			Convey("And org-wide reads aggregate by model", func() {
				got, err := store.AttributionsByOrg(ctx, "org-1", "role_based")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
			})
		})

		Convey("When the deal does not exist", func() {
			err := store.ReplaceAttributions(ctx, "nope", "role_based", rows)
			So(errors.Is(err, repository.ErrDealNotFound), ShouldBeTrue)
		})
	})
}

func TestMemStore_ScoreSnapshots(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newStore(ctx)

		Convey("When no snapshot was saved", func() {
			prior, takenAt, err := store.PriorScores(ctx, "org-1")
			So(err, ShouldBeNil)
			So(prior, ShouldBeEmpty)
			So(takenAt.IsZero(), ShouldBeTrue)
		})

		Convey("When a snapshot is saved", func() {
			stamp := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
			store = repository.NewMemStore(ctx, repository.WithClock(func() time.Time { return stamp }))
			So(store.SaveScoreSnapshot(ctx, "org-1", map[string]int{"partner-a": 72}), ShouldBeNil)

			Convey("Then it reads back as the prior, stamped with the store clock", func() {
				prior, takenAt, err := store.PriorScores(ctx, "org-1")
				So(err, ShouldBeNil)
				So(prior["partner-a"], ShouldEqual, 72)
				So(takenAt.Equal(stamp), ShouldBeTrue)
			})

			Convey("And mutating the returned map does not leak into the store", func() {
				prior, _, _ := store.PriorScores(ctx, "org-1")
				prior["partner-a"] = 0
				again, _, _ := store.PriorScores(ctx, "org-1")
				So(again["partner-a"], ShouldEqual, 72)
			})
		})
	})
}

func TestMemStore_Counts(t *testing.T) {
	Convey("Given a populated store", t, func() {
		ctx := context.Background()
		store := newStore(ctx)

		deal, err := store.PutDeal(ctx, model.Deal{OrgID: "org-1", Amount: dec("100")})
		So(err, ShouldBeNil)
		_, err = store.PutPartner(ctx, model.Partner{OrgID: "org-1", Name: "p"})
		So(err, ShouldBeNil)
		_, err = store.AppendTouchpoint(ctx, model.Touchpoint{DealID: deal.ID, PartnerID: "partner-a", Type: model.TouchIntro})
		So(err, ShouldBeNil)
		_, err = store.PutRule(ctx, model.CommissionRule{OrgID: "org-1", Rate: dec("0.1")})
		So(err, ShouldBeNil)

		Convey("When reading counts", func() {
			counts := store.Counts(ctx)

			Convey("Then each record kind is tallied", func() {
				So(counts["deals"], ShouldEqual, 1)
				So(counts["partners"], ShouldEqual, 1)
				So(counts["touchpoints"], ShouldEqual, 1)
				So(counts["rules"], ShouldEqual, 1)
				So(counts["attributions"], ShouldEqual, 0)
			})
		})
	})
}

func TestMemStore_Partners(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newStore(ctx)

		Convey("When storing a partner without a tier", func() {
			created, err := store.PutPartner(ctx, model.Partner{OrgID: "org-1", Name: "p", BaseRate: dec("0.05")})
			So(err, ShouldBeNil)

			Convey("Then bronze is assumed", func() {
				So(created.Tier, ShouldEqual, model.TierBronze)
				So(created.ID, ShouldNotBeEmpty)
			})

			Convey("And it lists under its org", func() {
				partners, err := store.PartnersByOrg(ctx, "org-1")
				So(err, ShouldBeNil)
				So(partners, ShouldHaveLength, 1)
			})
		})

		Convey("When fetching a missing partner", func() {
			_, err := store.Partner(ctx, "nope")
			So(errors.Is(err, repository.ErrPartnerNotFound), ShouldBeTrue)
		})

		Convey("When the org id is missing", func() {
			_, err := store.PutPartner(ctx, model.Partner{Name: "p"})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}
