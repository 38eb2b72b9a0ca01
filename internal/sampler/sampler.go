package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

// ClassifyFunc maps a question to its exam domain.
type ClassifyFunc func(question.Question) domain.Domain

// Draw is the outcome of one sampling run.
type Draw struct {
	Questions []question.Question
	// Picked counts the per-domain picks made before backfill.
	Picked map[domain.Domain]int
	// Backfilled is the number of questions added to cover sparse domains.
	Backfilled int
}

// Sampler assembles question sets that follow the exam's domain weighting.
type Sampler struct {
	classify ClassifyFunc
	rng      *rand.Rand
}

// New creates a sampler. A nil src seeds from the runtime's random source.
func New(classify ClassifyFunc, src rand.Source) *Sampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Sampler{classify: classify, rng: rand.New(src)}
}

// Allocation returns the per-domain target counts for an n-question set.
func Allocation(n int) map[domain.Domain]int {
	out := make(map[domain.Domain]int, 5)
	for _, d := range domain.All() {
		out[d] = int(math.Round(float64(n) * d.Weight()))
	}
	return out
}

// Sample returns up to n questions from pool, weighted by domain.
func (s *Sampler) Sample(pool []question.Question, n int) []question.Question {
	return s.Draw(pool, n).Questions
}

// Draw samples like Sample and also reports how the set was assembled.
func (s *Sampler) Draw(pool []question.Question, n int) Draw {
	draw := Draw{Picked: make(map[domain.Domain]int, 5)}
	if n <= 0 || len(pool) == 0 {
		return draw
	}

	buckets := make(map[domain.Domain][]int, 5)
	for i, q := range pool {
		d := s.classify(q)
		buckets[d] = append(buckets[d], i)
	}

	picked := make([]bool, len(pool))
	var out []question.Question
	targets := Allocation(n)
	for _, d := range domain.All() {
		bucket := buckets[d]
		s.shuffle(bucket)
		take := min(targets[d], len(bucket))
		for _, idx := range bucket[:take] {
			picked[idx] = true
			out = append(out, pool[idx])
		}
		draw.Picked[d] = take
	}

	if short := n - len(out); short > 0 {
		var rest []int
		for i := range pool {
			if !picked[i] {
				rest = append(rest, i)
			}
		}
		s.shuffle(rest)
		take := min(short, len(rest))
		for _, idx := range rest[:take] {
			out = append(out, pool[idx])
		}
		draw.Backfilled = take
	}

	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	// Rounded targets can sum past n.
	if len(out) > n {
		out = out[:n]
	}
	draw.Questions = out
	return draw
}

func (s *Sampler) shuffle(idx []int) {
	s.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
}
