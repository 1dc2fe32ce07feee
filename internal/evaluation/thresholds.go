package evaluation

// Thresholds holds the empirically chosen scoring constants. They are
// parameters, not invariants; DefaultThresholds pins current behavior.
type Thresholds struct {
	// Lexical matching
	MinTokenLength    int     // tokens of this length or shorter are dropped
	CriterionMetRatio float64 // fraction of tokens that must appear for a criterion to count as met

	// Drill composite
	DrillElementWeight  float64
	DrillCriteriaWeight float64
	DrillLengthCap      float64
	DrillLengthScale    float64 // characters per unit of length bonus

	// Challenge composite
	SectionWeight        float64
	ConstraintWeight     float64
	KeywordWeight        float64
	ChallengeLengthCap   float64
	ChallengeLengthScale float64

	JSONPenalty         int // subtracted from every criterion when a JSON block fails to parse
	WeaknessThreshold   int // criterion scores below this are weaknesses
	ShortResponseLength int // responses shorter than this get a length suggestion

	LowConfidenceRatio    float64
	MediumConfidenceRatio float64
}

// DefaultThresholds returns the constants the engine ships with
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTokenLength:    3,
		CriterionMetRatio: 0.3,

		DrillElementWeight:  0.5,
		DrillCriteriaWeight: 0.4,
		DrillLengthCap:      0.1,
		DrillLengthScale:    5000,

		SectionWeight:        0.3,
		ConstraintWeight:     0.3,
		KeywordWeight:        0.3,
		ChallengeLengthCap:   0.1,
		ChallengeLengthScale: 10000,

		JSONPenalty:         10,
		WeaknessThreshold:   60,
		ShortResponseLength: 200,

		LowConfidenceRatio:    0.5,
		MediumConfidenceRatio: 0.8,
	}
}

// withDefaults fills zero-valued fields from DefaultThresholds so a partially
// specified config section still scores sensibly
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MinTokenLength <= 0 {
		t.MinTokenLength = d.MinTokenLength
	}
	if t.CriterionMetRatio <= 0 {
		t.CriterionMetRatio = d.CriterionMetRatio
	}
	if t.DrillElementWeight == 0 && t.DrillCriteriaWeight == 0 {
		t.DrillElementWeight = d.DrillElementWeight
		t.DrillCriteriaWeight = d.DrillCriteriaWeight
	}
	if t.DrillLengthCap <= 0 {
		t.DrillLengthCap = d.DrillLengthCap
	}
	if t.DrillLengthScale <= 0 {
		t.DrillLengthScale = d.DrillLengthScale
	}
	if t.SectionWeight == 0 && t.ConstraintWeight == 0 && t.KeywordWeight == 0 {
		t.SectionWeight = d.SectionWeight
		t.ConstraintWeight = d.ConstraintWeight
		t.KeywordWeight = d.KeywordWeight
	}
	if t.ChallengeLengthCap <= 0 {
		t.ChallengeLengthCap = d.ChallengeLengthCap
	}
	if t.ChallengeLengthScale <= 0 {
		t.ChallengeLengthScale = d.ChallengeLengthScale
	}
	if t.JSONPenalty < 0 {
		t.JSONPenalty = 0
	}
	if t.WeaknessThreshold <= 0 {
		t.WeaknessThreshold = d.WeaknessThreshold
	}
	if t.ShortResponseLength <= 0 {
		t.ShortResponseLength = d.ShortResponseLength
	}
	if t.LowConfidenceRatio <= 0 {
		t.LowConfidenceRatio = d.LowConfidenceRatio
	}
	if t.MediumConfidenceRatio <= 0 {
		t.MediumConfidenceRatio = d.MediumConfidenceRatio
	}
	return t
}
