package classifier

import (
	"sort"
	"strings"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

// DesignSolutionsTag is the coarse source tag that is not trusted directly.
const DesignSolutionsTag = "design-solutions"

// Tier identifies which rule decided a classification.
type Tier int

const (
	TierExplicit Tier = iota + 1
	TierDesignKeywords
	TierScoredWinner
	TierStrongPhrase
	TierTopScore
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierExplicit:
		return "explicit-tag"
	case TierDesignKeywords:
		return "design-keywords"
	case TierScoredWinner:
		return "scored-winner"
	case TierStrongPhrase:
		return "strong-phrase"
	case TierTopScore:
		return "top-score"
	case TierFallback:
		return "id-fallback"
	default:
		return "unknown"
	}
}

// Config holds the scoring thresholds.
type Config struct {
	// StrongWinnerMin is the score a domain must reach before the coarse
	// sweep is skipped.
	StrongWinnerMin int `yaml:"strong_winner_min" validate:"gte=1"`
	// TieMargin is how far the top score must lead the runner-up to win
	// outright.
	TieMargin int `yaml:"tie_margin" validate:"gte=0"`
	// SweepWeight is added to each domain matched by the coarse sweep.
	SweepWeight int `yaml:"sweep_weight" validate:"gte=1"`
}

// DefaultConfig returns the calibrated thresholds.
func DefaultConfig() Config {
	return Config{
		StrongWinnerMin: 3,
		TieMargin:       2,
		SweepWeight:     5,
	}
}

// Result is the outcome of a classification with its diagnostics.
type Result struct {
	Domain domain.Domain
	Tier   Tier
	// Scores is nil when the tag tiers decided.
	Scores map[domain.Domain]int
	Swept  bool
}

// Classifier assigns exam domains to questions. It holds no mutable state.
type Classifier struct {
	cfg Config
}

// New creates a classifier with the given thresholds.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

var defaultClassifier = New(DefaultConfig())

// Classify returns the domain of q using the default thresholds.
func Classify(q question.Question) domain.Domain {
	return defaultClassifier.Classify(q)
}

// Classify returns the domain of q. It always returns one of the five
// domains and is deterministic.
func (c *Classifier) Classify(q question.Question) domain.Domain {
	return c.Explain(q).Domain
}

// Explain classifies q and reports which tier decided.
func (c *Classifier) Explain(q question.Question) Result {
	text := corpus(q)

	switch tag := strings.ToLower(strings.TrimSpace(q.Category)); {
	case tag == DesignSolutionsTag:
		return Result{Domain: designTier(text), Tier: TierDesignKeywords}
	case domain.Domain(tag).Valid():
		return Result{Domain: domain.Domain(tag), Tier: TierExplicit}
	}

	scores := score(text)
	swept := false
	if maxScore(scores) < c.cfg.StrongWinnerMin {
		swept = c.sweep(text, scores)
	}

	res := Result{Scores: scores, Swept: swept}
	res.Domain, res.Tier = c.decide(q.ID, text, scores)
	return res
}

func (c *Classifier) decide(id int, text string, scores map[domain.Domain]int) (domain.Domain, Tier) {
	ranked := domain.All()
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	top, runnerUp := ranked[0], ranked[1]

	if scores[top]-scores[runnerUp] > c.cfg.TieMargin {
		return top, TierScoredWinner
	}
	if d, ok := firstGroupHit(strongPhrases, text); ok {
		return d, TierStrongPhrase
	}
	if scores[top] > 0 {
		return top, TierTopScore
	}
	return fallback(id), TierFallback
}

func designTier(text string) domain.Domain {
	if d, ok := firstGroupHit(designGroups, text); ok {
		return d
	}
	return domain.NewSolutions
}

func firstGroupHit(groups []keywordGroup, text string) (domain.Domain, bool) {
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				return g.domain, true
			}
		}
	}
	return "", false
}

func score(text string) map[domain.Domain]int {
	scores := make(map[domain.Domain]int, 5)
	for _, d := range domain.All() {
		for _, kw := range compiledScoring[d] {
			if kw.re.MatchString(text) {
				scores[d] += kw.weight
			}
		}
	}
	return scores
}

// sweep adds SweepWeight to every domain with a coarse keyword hit and
// reports whether any domain matched.
func (c *Classifier) sweep(text string, scores map[domain.Domain]int) bool {
	hit := false
	for _, d := range domain.All() {
		for _, kw := range sweepKeywords[d] {
			if strings.Contains(text, kw) {
				scores[d] += c.cfg.SweepWeight
				hit = true
				break
			}
		}
	}
	return hit
}

func maxScore(scores map[domain.Domain]int) int {
	m := 0
	for _, s := range scores {
		m = max(m, s)
	}
	return m
}

// fallback spreads unclassifiable questions evenly by id.
func fallback(id int) domain.Domain {
	all := domain.All()
	return all[((id%len(all))+len(all))%len(all)]
}

func corpus(q question.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	for _, o := range q.Options {
		b.WriteByte(' ')
		b.WriteString(o.Text)
	}
	b.WriteByte(' ')
	b.WriteString(q.Explanation)
	return strings.ToLower(b.String())
}
