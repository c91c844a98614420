package scorecard_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/internal/domain/scorecard"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func partner(id string, tier model.Tier) model.Partner {
	return model.Partner{ID: id, OrgID: "org-1", Name: id, Tier: tier, BaseRate: dec("0.05")}
}

func wonDeal(id, registeredBy string, amount string, daysToClose float64) model.Deal {
	created := testNow.Add(-60 * 24 * time.Hour)
	return model.Deal{
		ID:           id,
		OrgID:        "org-1",
		Amount:       dec(amount),
		Status:       model.DealWon,
		RegisteredBy: registeredBy,
		CreatedAt:    created,
		ClosedAt:     created.Add(time.Duration(daysToClose*24) * time.Hour),
	}
}

func openDeal(id, registeredBy, amount string) model.Deal {
	return model.Deal{
		ID:           id,
		OrgID:        "org-1",
		Amount:       dec(amount),
		Status:       model.DealOpen,
		RegisteredBy: registeredBy,
		CreatedAt:    testNow.Add(-10 * 24 * time.Hour),
	}
}

func attrib(dealID, partnerID, amount string) model.Attribution {
	return model.Attribution{
		DealID:    dealID,
		PartnerID: partnerID,
		Model:     "role_based",
		Amount:    dec(amount),
	}
}

func scoreFor(scores []model.PartnerScore, id string) (model.PartnerScore, bool) {
	for _, s := range scores {
		if s.PartnerID == id {
			return s, true
		}
	}
	return model.PartnerScore{}, false
}

func TestEngine_ScoreAll(t *testing.T) {
	Convey("Given an engine with a fixed clock", t, func() {
		engine := scorecard.NewEngine(scorecard.WithClock(fixedClock))

		Convey("When the partner population is empty", func() {
			So(engine.ScoreAll(nil, nil, nil, nil, nil), ShouldBeNil)
		})

		Convey("When a partner has no history at all", func() {
			partners := []model.Partner{
				partner("partner-active", model.TierSilver),
				partner("partner-idle", model.TierSilver),
			}
			deals := []model.Deal{wonDeal("deal-1", "partner-active", "50000.00", 20)}
			attribs := []model.Attribution{attrib("deal-1", "partner-active", "50000.00")}

			scores := engine.ScoreAll(partners, deals, nil, attribs, nil)
			So(scores, ShouldHaveLength, 2)

			Convey("Then the idle partner scores zero on every dimension", func() {
				idle, ok := scoreFor(scores, "partner-idle")
				So(ok, ShouldBeTrue)
				So(idle.Revenue.Score, ShouldEqual, 0)
				So(idle.Pipeline.Score, ShouldEqual, 0)
				So(idle.Engagement.Score, ShouldEqual, 0)
				So(idle.Velocity.Score, ShouldEqual, 0)
				So(idle.Overall, ShouldEqual, 0)
			})

			Convey("And ranks last", func() {
				idle, _ := scoreFor(scores, "partner-idle")
				So(idle.Rank, ShouldEqual, 2)
			})
		})

		Convey("When the peer population is a single partner with history", func() {
			partners := []model.Partner{partner("partner-solo", model.TierBronze)}
			deals := []model.Deal{
				wonDeal("deal-1", "partner-solo", "80000.00", 15),
				openDeal("deal-2", "partner-solo", "40000.00"),
			}
			touches := []model.Touchpoint{
				{DealID: "deal-1", PartnerID: "partner-solo", Type: model.TouchCoSell, CreatedAt: testNow.Add(-5 * 24 * time.Hour)},
			}
			attribs := []model.Attribution{attrib("deal-1", "partner-solo", "80000.00")}

			scores := engine.ScoreAll(partners, deals, touches, attribs, nil)
			So(scores, ShouldHaveLength, 1)
			solo := scores[0]

			Convey("Then every populated dimension scores 100", func() {
				So(solo.Revenue.Score, ShouldEqual, 100)
				So(solo.Pipeline.Score, ShouldEqual, 100)
				So(solo.Engagement.Score, ShouldEqual, 100)
				So(solo.Velocity.Score, ShouldEqual, 100)
				So(solo.Overall, ShouldEqual, 100)
				So(solo.Rank, ShouldEqual, 1)
			})

			Convey("And the overall maps to a platinum recommendation", func() {
				So(solo.RecommendedTier, ShouldEqual, model.TierPlatinum)
				So(solo.TierChange, ShouldEqual, model.TierUpgrade)
			})
		})

		Convey("When two partners differ only in revenue", func() {
			partners := []model.Partner{
				partner("partner-big", model.TierGold),
				partner("partner-small", model.TierGold),
			}
			deals := []model.Deal{
				wonDeal("deal-1", "partner-big", "100000.00", 30),
				wonDeal("deal-2", "partner-small", "100000.00", 30),
			}
			attribs := []model.Attribution{
				attrib("deal-1", "partner-big", "100000.00"),
				attrib("deal-2", "partner-small", "25000.00"),
			}

			scores := engine.ScoreAll(partners, deals, nil, attribs, nil)

			Convey("Then more attributed revenue yields a strictly higher revenue score", func() {
				big, _ := scoreFor(scores, "partner-big")
				small, _ := scoreFor(scores, "partner-small")
				So(big.Revenue.Score, ShouldEqual, 100)
				So(small.Revenue.Score, ShouldEqual, 25)
				So(big.Overall, ShouldBeGreaterThan, small.Overall)
				So(big.Rank, ShouldEqual, 1)
				So(small.Rank, ShouldEqual, 2)
			})

			Convey("And equal close times give both full velocity credit", func() {
				big, _ := scoreFor(scores, "partner-big")
				small, _ := scoreFor(scores, "partner-small")
				So(big.Velocity.Score, ShouldEqual, 100)
				So(small.Velocity.Score, ShouldEqual, 100)
			})
		})

		Convey("When partners close at different speeds", func() {
			partners := []model.Partner{
				partner("partner-fast", model.TierSilver),
				partner("partner-slow", model.TierSilver),
				partner("partner-mid", model.TierSilver),
			}
			deals := []model.Deal{
				wonDeal("deal-1", "partner-fast", "10000.00", 10),
				wonDeal("deal-2", "partner-slow", "10000.00", 50),
				wonDeal("deal-3", "partner-mid", "10000.00", 30),
			}

			scores := engine.ScoreAll(partners, deals, nil, nil, nil)

			Convey("Then velocity scales linearly between slowest and fastest", func() {
				fast, _ := scoreFor(scores, "partner-fast")
				slow, _ := scoreFor(scores, "partner-slow")
				mid, _ := scoreFor(scores, "partner-mid")
				So(fast.Velocity.Score, ShouldEqual, 100)
				So(slow.Velocity.Score, ShouldEqual, 0)
				So(mid.Velocity.Score, ShouldEqual, 50)
			})
		})
	})
}

func TestEngine_TrendAndTiers(t *testing.T) {
	Convey("Given a partner scoring 100 overall", t, func() {
		engine := scorecard.NewEngine(scorecard.WithClock(fixedClock))
		partners := []model.Partner{partner("partner-solo", model.TierPlatinum)}
		deals := []model.Deal{
			wonDeal("deal-1", "partner-solo", "50000.00", 10),
			openDeal("deal-2", "partner-solo", "30000.00"),
		}
		touches := []model.Touchpoint{
			{DealID: "deal-1", PartnerID: "partner-solo", Type: model.TouchCoSell, CreatedAt: testNow.Add(-3 * 24 * time.Hour)},
		}
		attribs := []model.Attribution{attrib("deal-1", "partner-solo", "50000.00")}

		Convey("When the prior score is well below", func() {
			scores := engine.ScoreAll(partners, deals, touches, attribs, map[string]int{"partner-solo": 60})
			So(scores[0].Trend, ShouldEqual, model.TrendUp)
		})

		Convey("When the prior score is within the stable band", func() {
			scores := engine.ScoreAll(partners, deals, touches, attribs, map[string]int{"partner-solo": 98})
			So(scores[0].Trend, ShouldEqual, model.TrendStable)
		})

		Convey("When there is no prior score", func() {
			scores := engine.ScoreAll(partners, deals, touches, attribs, nil)
			So(scores[0].Trend, ShouldEqual, model.TrendStable)
		})

		Convey("When the stable band is widened", func() {
			wide := scorecard.NewEngine(
				scorecard.WithClock(fixedClock),
				scorecard.WithStableBand(50),
			)
			scores := wide.ScoreAll(partners, deals, touches, attribs, map[string]int{"partner-solo": 60})
			So(scores[0].Trend, ShouldEqual, model.TrendStable)
		})

		Convey("And the platinum partner keeps its tier", func() {
			scores := engine.ScoreAll(partners, deals, touches, attribs, nil)
			So(scores[0].RecommendedTier, ShouldEqual, model.TierPlatinum)
			So(scores[0].TierChange, ShouldEqual, model.TierMaintain)
		})
	})

	Convey("Given a gold partner whose score collapses", t, func() {
		engine := scorecard.NewEngine(scorecard.WithClock(fixedClock))
		partners := []model.Partner{
			partner("partner-strong", model.TierBronze),
			partner("partner-weak", model.TierGold),
		}
		deals := []model.Deal{wonDeal("deal-1", "partner-strong", "90000.00", 12)}
		attribs := []model.Attribution{attrib("deal-1", "partner-strong", "90000.00")}

		Convey("When scored against a strong peer", func() {
			scores := engine.ScoreAll(partners, deals, nil, attribs, nil)
			weak, _ := scoreFor(scores, "partner-weak")

			Convey("Then a downgrade is recommended", func() {
				So(weak.RecommendedTier, ShouldEqual, model.TierBronze)
				So(weak.TierChange, ShouldEqual, model.TierDowngrade)
			})
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given a weight vector", t, func() {
		Convey("When the entries do not sum to one", func() {
			w := scorecard.Weights{Revenue: 2, Pipeline: 1, Engagement: 1, Velocity: 0}.Normalized()

			Convey("Then normalization rescales them proportionally", func() {
				So(w.Revenue, ShouldAlmostEqual, 0.5)
				So(w.Pipeline, ShouldAlmostEqual, 0.25)
				So(w.Engagement, ShouldAlmostEqual, 0.25)
				So(w.Velocity, ShouldEqual, 0)
			})
		})

		Convey("When entries are negative", func() {
			w := scorecard.Weights{Revenue: -1, Pipeline: 1, Engagement: 1, Velocity: 0}.Normalized()

			Convey("Then negatives are treated as zero", func() {
				So(w.Revenue, ShouldEqual, 0)
				So(w.Pipeline, ShouldAlmostEqual, 0.5)
			})
		})

		Convey("When the vector is all zero", func() {
			w := scorecard.Weights{}.Normalized()

			Convey("Then equal weighting applies", func() {
				So(w.Revenue, ShouldEqual, 0.25)
				So(w.Velocity, ShouldEqual, 0.25)
			})
		})
	})

	Convey("Given custom weights on the engine", t, func() {
		engine := scorecard.NewEngine(
			scorecard.WithClock(fixedClock),
			scorecard.WithWeights(scorecard.Weights{Revenue: 1}),
		)
		partners := []model.Partner{
			partner("partner-a", model.TierSilver),
			partner("partner-b", model.TierSilver),
		}
		deals := []model.Deal{
			wonDeal("deal-1", "partner-a", "10000.00", 10),
			wonDeal("deal-2", "partner-b", "10000.00", 40),
		}
		attribs := []model.Attribution{
			attrib("deal-1", "partner-a", "10000.00"),
			attrib("deal-2", "partner-b", "5000.00"),
		}

		Convey("When only revenue carries weight", func() {
			scores := engine.ScoreAll(partners, deals, nil, attribs, nil)
			b, _ := scoreFor(scores, "partner-b")

			Convey("Then velocity differences do not move the overall", func() {
				So(b.Overall, ShouldEqual, 50)
			})
		})
	})
}

func TestEngine_RankingDeterminism(t *testing.T) {
	Convey("Given partners with identical scores", t, func() {
		engine := scorecard.NewEngine(scorecard.WithClock(fixedClock))
		partners := []model.Partner{
			partner("partner-b", model.TierSilver),
			partner("partner-a", model.TierSilver),
		}

		Convey("When neither has any history", func() {
			scores := engine.ScoreAll(partners, nil, nil, nil, nil)

			Convey("Then partner id breaks the tie", func() {
				So(scores[0].PartnerID, ShouldEqual, "partner-a")
				So(scores[0].Rank, ShouldEqual, 1)
				So(scores[1].PartnerID, ShouldEqual, "partner-b")
				So(scores[1].Rank, ShouldEqual, 2)
			})
		})
	})
}
