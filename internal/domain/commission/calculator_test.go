package commission_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/commission"
	"github.com/okian/revshare/internal/domain/model"
)

func TestCalculator_Compute(t *testing.T) {
	Convey("Given a won deal with two contributing partners", t, func() {
		calc := commission.NewCalculator(attribution.NewCalculator())
		closed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		deal := model.Deal{
			ID:          "deal-1",
			OrgID:       "org-1",
			Amount:      dec("100000.00"),
			Status:      model.DealWon,
			ProductLine: "analytics",
			ClosedAt:    closed,
		}
		touches := []model.Touchpoint{
			{PartnerID: "partner-a", Type: model.TouchRegistration, Seq: 1, CreatedAt: closed.Add(-30 * 24 * time.Hour)},
			{PartnerID: "partner-b", Type: model.TouchCoSell, Seq: 2, CreatedAt: closed.Add(-10 * 24 * time.Hour)},
		}
		partners := map[string]model.Partner{
			"partner-a": {ID: "partner-a", Tier: model.TierGold, Type: "reseller", BaseRate: dec("0.05")},
			"partner-b": {ID: "partner-b", Tier: model.TierSilver, Type: "referral", BaseRate: dec("0.03")},
		}
		rules := []model.CommissionRule{
			{Name: "gold resellers", PartnerTier: model.TierGold, Rate: dec("0.10"), Priority: 1, Seq: 1},
		}

		Convey("When computing role based commissions", func() {
			rows, err := calc.Compute(deal, touches, rules, partners, attribution.RoleBased)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			Convey("Then each row carries its resolved rule and rounded amount", func() {
				var a, b commission.Row
				for _, r := range rows {
					switch r.PartnerID {
					case "partner-a":
						a = r
					case "partner-b":
						b = r
					}
				}
				// registration 2.0 vs co_sell 1.0: 66.67 / 33.33
				So(a.AppliedRule, ShouldEqual, "gold resellers")
				So(a.Attributed.StringFixed(2), ShouldEqual, "66670.00")
				So(a.Commission.StringFixed(2), ShouldEqual, "6667.00")

				So(b.AppliedRule, ShouldEqual, commission.DefaultRuleName)
				So(b.Attributed.StringFixed(2), ShouldEqual, "33330.00")
				So(b.Commission.StringFixed(2), ShouldEqual, "999.90")
			})

			Convey("And recomputing yields identical rows", func() {
				again, err := calc.Compute(deal, touches, rules, partners, attribution.RoleBased)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, rows)
			})
		})

		Convey("When the deal is not won", func() {
			open := deal
			open.Status = model.DealOpen
			_, err := calc.Compute(open, touches, rules, partners, attribution.RoleBased)

			Convey("Then commission is refused", func() {
				So(errors.Is(err, commission.ErrInvalidDeal), ShouldBeTrue)
			})
		})

		Convey("When a touchpoint references an unknown partner", func() {
			orphan := append(touches, model.Touchpoint{
				PartnerID: "partner-ghost", Type: model.TouchIntro, Seq: 3, CreatedAt: closed,
			})
			_, err := calc.Compute(deal, orphan, rules, partners, attribution.RoleBased)

			Convey("Then no partial result is produced", func() {
				So(errors.Is(err, commission.ErrPartnerNotFound), ShouldBeTrue)
			})
		})

		Convey("When the deal has no touchpoints", func() {
			rows, err := calc.Compute(deal, nil, rules, partners, attribution.RoleBased)

			Convey("Then the commission set is empty", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})
	})
}
