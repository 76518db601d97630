package salary_test

import (
	"testing"

	"jobscout/internal/salary"
)

func check(t *testing.T, text string, wantMin, wantMax int) {
	t.Helper()
	var p salary.Parser
	min, max := p.Parse(text)
	if min == nil || max == nil {
		t.Fatalf("Parse(%q) = (%v, %v), want (%d, %d)", text, min, max, wantMin, wantMax)
	}
	if *min != wantMin || *max != wantMax {
		t.Errorf("Parse(%q) = (%d, %d), want (%d, %d)", text, *min, *max, wantMin, wantMax)
	}
}

func checkNone(t *testing.T, text string) {
	t.Helper()
	var p salary.Parser
	min, max := p.Parse(text)
	if min != nil || max != nil {
		t.Errorf("Parse(%q) = (%v, %v), want (nil, nil)", text, min, max)
	}
}

// ── Annual figures ─────────────────────────────────────────────────────────

func TestParse_AnnualRange(t *testing.T) {
	check(t, "年収500万円〜650万円", 5_000_000, 6_500_000)
	check(t, "＜予定年収＞980万円～1,200万円", 9_800_000, 12_000_000)
	check(t, "年俸600万円", 6_000_000, 6_000_000)
}

func TestParse_AnnualSingle(t *testing.T) {
	check(t, "年収800万円", 8_000_000, 8_000_000)
}

func TestParse_RangeHeadWithoutUnit(t *testing.T) {
	// The lower bound is written without its own 万円.
	check(t, "400〜600万円", 4_000_000, 6_000_000)
	check(t, "450万〜700万円", 4_500_000, 7_000_000)
}

// ── Monthly figures ────────────────────────────────────────────────────────

func TestParse_MonthlyConvertedToAnnual(t *testing.T) {
	check(t, "月給25万円", 3_000_000, 3_000_000)
	check(t, "月給25万円〜30万円", 3_000_000, 3_600_000)
}

func TestParse_MonthlyInPlainYen(t *testing.T) {
	// 380,000円/month → 4,560,000/year
	check(t, "月給 380,000円", 4_560_000, 4_560_000)
}

func TestParse_MonthlyAboveCutoffNotMultiplied(t *testing.T) {
	// 300万円 in a 月給 string is implausible as a monthly wage — it is an
	// annual amount written without a marker and must not be ×12 again.
	check(t, "月給 300万円", 3_000_000, 3_000_000)
}

func TestParse_CustomCutoff(t *testing.T) {
	p := salary.Parser{MonthlyCutoff: 1_000_000}
	min, max := p.Parse("月給 150万円")
	if min == nil || *min != 1_500_000 || *max != 1_500_000 {
		t.Errorf("Parse with cutoff 1M = (%v, %v), want (1500000, 1500000)", min, max)
	}
}

// ── Mixed markers: annual-tagged figures win ───────────────────────────────

func TestParse_MixedMarkersPrefersAnnual(t *testing.T) {
	check(t, "月給25万円（年収400万円以上）", 4_000_000, 4_000_000)
}

// ── Unparseable input ──────────────────────────────────────────────────────

func TestParse_Unparseable(t *testing.T) {
	checkNone(t, "")
	checkNone(t, "応相談")
	checkNone(t, "competitive salary")
	checkNone(t, "経験・能力を考慮の上、当社規定により決定")
}

func TestParse_Deterministic(t *testing.T) {
	var p salary.Parser
	for i := 0; i < 3; i++ {
		min, max := p.Parse("年収460万円〜580万円")
		if min == nil || *min != 4_600_000 || *max != 5_800_000 {
			t.Fatalf("run %d: got (%v, %v)", i, min, max)
		}
	}
}
