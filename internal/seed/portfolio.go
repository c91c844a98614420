package seed

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// Partner type and tier pools for generation.
var (
	partnerTypes = []string{"reseller", "referral", "integrator"}
	partnerTiers = []string{"bronze", "silver", "gold", "platinum"}
	productLines = []string{"analytics", "platform", "security"}
	touchTypes   = []string{"registration", "co_sell", "intro", "content_share", "support"}
)

// Deal amount generation ranges.
const (
	smallDealMin  = 5_000
	smallDealMax  = 25_000
	midDealMin    = 25_000
	midDealMax    = 150_000
	largeDealMin  = 150_000
	largeDealMax  = 1_000_000
	dealSizeCases = 4
)

// partnerSpec is a generated partner before it has a server-assigned id.
type partnerSpec struct {
	Name     string
	Type     string
	Tier     string
	BaseRate string
}

// dealSpec is a generated deal with the touchpoints that belong to it.
type dealSpec struct {
	Name        string
	Amount      string
	ProductLine string
	// Index into the generated partner list; the runner resolves it to a
	// server-assigned id after the partners are created.
	RegisteredBy int
	Touches      []touchSpec
	Win          bool
}

type touchSpec struct {
	Partner int
	Type    string
	Offset  time.Duration // age relative to deal creation
}

// randInt returns a uniform random int in [0, n) using crypto/rand.
func randInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// randFloat returns a uniform random float64 in [0, 1).
func randFloat() float64 {
	const divisor = 1_000_000
	v, _ := rand.Int(rand.Reader, big.NewInt(divisor))
	return float64(v.Int64()) / divisor
}

// generatePartners builds cfg.Partners partner specs with mixed types,
// tiers and base rates.
func generatePartners(cfg *Config) []partnerSpec {
	partners := make([]partnerSpec, cfg.Partners)
	for i := range partners {
		// Base rates between 5% and 15%, tier-biased.
		tier := partnerTiers[randInt(len(partnerTiers))]
		rate := 0.05 + randFloat()*0.10
		partners[i] = partnerSpec{
			Name:     "partner-" + strconv.Itoa(i+1),
			Type:     partnerTypes[randInt(len(partnerTypes))],
			Tier:     tier,
			BaseRate: strconv.FormatFloat(rate, 'f', 4, 64),
		}
	}
	return partners
}

// generateDeals builds cfg.Deals deal specs. Each deal gets one to four
// touchpoints from distinct partners with staggered ages so every
// attribution model produces a different split.
func generateDeals(cfg *Config) []dealSpec {
	deals := make([]dealSpec, cfg.Deals)
	for i := range deals {
		registrar := randInt(cfg.Partners)
		touches := generateTouches(cfg, registrar)
		deals[i] = dealSpec{
			Name:         "deal-" + strconv.Itoa(i+1),
			Amount:       generateDealAmount(),
			ProductLine:  productLines[randInt(len(productLines))],
			RegisteredBy: registrar,
			Touches:      touches,
			Win:          randFloat() < cfg.WinRate,
		}
	}
	return deals
}

// generateDealAmount returns a deal size from a skewed distribution that
// keeps most deals mid-sized with occasional large ones.
func generateDealAmount() string {
	var amount int
	switch randInt(dealSizeCases) {
	case 0:
		amount = smallDealMin + randInt(smallDealMax-smallDealMin)
	case 1, 2:
		amount = midDealMin + randInt(midDealMax-midDealMin)
	default:
		amount = largeDealMin + randInt(largeDealMax-largeDealMin)
	}
	return strconv.Itoa(amount) + ".00"
}

// generateTouches builds one registration touch for the registrar followed
// by up to three extra touches from other partners, oldest first.
func generateTouches(cfg *Config, registrar int) []touchSpec {
	extra := randInt(4)
	touches := make([]touchSpec, 0, extra+1)

	// Registration is always the oldest touch.
	touches = append(touches, touchSpec{
		Partner: registrar,
		Type:    "registration",
		Offset:  -time.Duration(20+randInt(40)) * 24 * time.Hour,
	})

	for j := 0; j < extra; j++ {
		partner := randInt(cfg.Partners)
		if partner == registrar && cfg.Partners > 1 {
			partner = (partner + 1) % cfg.Partners
		}
		// Later touches are younger than the registration.
		touches = append(touches, touchSpec{
			Partner: partner,
			Type:    touchTypes[1+randInt(len(touchTypes)-1)],
			Offset:  -time.Duration(1+randInt(18)) * 24 * time.Hour,
		})
	}
	return touches
}

// generateRules builds cfg.Rules commission rules covering tier and
// product-line combinations with descending priority.
func generateRules(cfg *Config) []map[string]any {
	rules := make([]map[string]any, 0, cfg.Rules)
	for i := 0; i < cfg.Rules; i++ {
		rule := map[string]any{
			"org_id":   cfg.OrgID,
			"name":     "rule-" + strconv.Itoa(i+1),
			"rate":     strconv.FormatFloat(0.06+randFloat()*0.12, 'f', 4, 64),
			"priority": i + 1,
		}
		// Alternate filter shapes so both specific and broad rules exist.
		switch i % 3 {
		case 0:
			rule["partner_tier"] = partnerTiers[randInt(len(partnerTiers))]
			rule["product_line"] = productLines[randInt(len(productLines))]
		case 1:
			rule["partner_type"] = partnerTypes[randInt(len(partnerTypes))]
			rule["min_deal_size"] = strconv.Itoa(midDealMin) + ".00"
		default:
			rule["product_line"] = productLines[randInt(len(productLines))]
		}
		rules = append(rules, rule)
	}
	return rules
}
