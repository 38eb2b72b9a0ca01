// Package catalog holds the loaded question pool together with the domain
// each question was classified into.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

// ClassifyFunc maps a question to its exam domain.
type ClassifyFunc func(question.Question) domain.Domain

// Catalog is an immutable, classified question pool.
type Catalog struct {
	questions []question.Question
	byID      map[int]int
	domains   map[int]domain.Domain
	classify  ClassifyFunc
}

// New classifies the questions once and indexes them. Question ids must be
// unique.
func New(questions []question.Question, classify ClassifyFunc) (*Catalog, error) {
	c := &Catalog{
		questions: make([]question.Question, len(questions)),
		byID:      make(map[int]int, len(questions)),
		domains:   make(map[int]domain.Domain, len(questions)),
		classify:  classify,
	}
	copy(c.questions, questions)
	for i, q := range c.questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d across banks", question.ErrInvalidBank, q.ID)
		}
		c.byID[q.ID] = i
		c.domains[q.ID] = classify(q)
	}
	return c, nil
}

// LoadFiles reads bank files concurrently and merges them in argument
// order. A path that is a directory contributes every *.json file in it.
func LoadFiles(ctx context.Context, paths []string, classify ClassifyFunc) (*Catalog, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no question bank files found")
	}

	banks := make([]*question.Bank, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := question.LoadFile(f)
			if err != nil {
				return err
			}
			banks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []question.Question
	for _, b := range banks {
		all = append(all, b.Questions...)
	}
	return New(all, classify)
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			files = append(files, filepath.Join(p, n))
		}
	}
	return files, nil
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Lookup returns a question by id.
func (c *Catalog) Lookup(id int) (question.Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return question.Question{}, false
	}
	return c.questions[i], true
}

// DomainOf returns the classified domain of a question, or "" when the id
// is unknown.
func (c *Catalog) DomainOf(id int) domain.Domain {
	return c.domains[id]
}

// Classify is a ClassifyFunc that answers from the cached classification.
// Questions outside the catalog are classified on the fly.
func (c *Catalog) Classify(q question.Question) domain.Domain {
	if d, ok := c.domains[q.ID]; ok {
		return d
	}
	return c.classify(q)
}

// Pool returns every question in load order.
func (c *Catalog) Pool() []question.Question {
	out := make([]question.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Domains returns a copy of the id to domain mapping.
func (c *Catalog) Domains() map[int]domain.Domain {
	out := make(map[int]domain.Domain, len(c.domains))
	for id, d := range c.domains {
		out[id] = d
	}
	return out
}

// DomainCounts returns how many questions fall in each domain.
func (c *Catalog) DomainCounts() map[domain.Domain]int {
	out := make(map[domain.Domain]int, 5)
	for _, d := range domain.All() {
		out[d] = 0
	}
	for _, d := range c.domains {
		out[d]++
	}
	return out
}

// Filter returns the questions of one domain in load order.
func (c *Catalog) Filter(d domain.Domain) []question.Question {
	var out []question.Question
	for _, q := range c.questions {
		if c.domains[q.ID] == d {
			out = append(out, q)
		}
	}
	return out
}

// Select returns the questions with the given ids, in the given order.
// Unknown ids are skipped.
func (c *Catalog) Select(ids []int) []question.Question {
	var out []question.Question
	for _, id := range ids {
		if q, ok := c.Lookup(id); ok {
			out = append(out, q)
		}
	}
	return out
}
