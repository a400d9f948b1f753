// Package index builds the per-dataset text index used for local search.
//
// An Index is filled once, while a dataset is loaded, and is read-only
// afterwards; concurrent Search calls on a built Index are safe. Content is
// split into lines on a break pattern and each line into tokens on a
// splitting pattern. Tokens are case-folded.
package index

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	DefaultBreakPattern = `\n`
	DefaultTokenPattern = `[^\p{L}\p{N}_]+`
)

// DefaultDenylist holds extensions of files that are kept in a dataset but
// never indexed.
var DefaultDenylist = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".bmp", ".webp",
	".pdf", ".pyc", ".so", ".o", ".a", ".class", ".jar", ".exe", ".bin",
	".tar", ".gz", ".tgz", ".zip", ".woff", ".woff2",
}

// Options configures tokenisation. Zero values select the defaults.
type Options struct {
	BreakPattern string
	TokenPattern string
	Denylist     []string
}

// Posting locates one occurrence of a term.
type Posting struct {
	Doc  string
	Line int
}

// Hit is a search result for one document.
type Hit struct {
	Doc   string
	Name  string
	Lines []int
}

type Index struct {
	breakRe *regexp.Regexp
	tokenRe *regexp.Regexp
	deny    []string

	postings map[string][]Posting
	names    map[string]string
	order    []string
	tokens   int
}

func New(opts Options) (*Index, error) {
	if opts.BreakPattern == "" {
		opts.BreakPattern = DefaultBreakPattern
	}
	if opts.TokenPattern == "" {
		opts.TokenPattern = DefaultTokenPattern
	}
	if opts.Denylist == nil {
		opts.Denylist = DefaultDenylist
	}

	breakRe, err := regexp.Compile(opts.BreakPattern)
	if err != nil {
		return nil, fmt.Errorf("compile break pattern: %w", err)
	}
	tokenRe, err := regexp.Compile(opts.TokenPattern)
	if err != nil {
		return nil, fmt.Errorf("compile token pattern: %w", err)
	}

	deny := make([]string, len(opts.Denylist))
	for i, ext := range opts.Denylist {
		deny[i] = strings.ToLower(ext)
	}

	return &Index{
		breakRe:  breakRe,
		tokenRe:  tokenRe,
		deny:     deny,
		postings: make(map[string][]Posting),
		names:    make(map[string]string),
	}, nil
}

// Skip reports whether a file name is denylisted.
func (ix *Index) Skip(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ix.deny {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Add indexes content under doc. It returns false when the file was skipped
// because of its extension or because the content is not valid UTF-8 text.
// Adding the same doc twice is a no-op.
func (ix *Index) Add(doc, name string, content []byte) bool {
	if ix.Skip(name) || !utf8.Valid(content) {
		return false
	}
	if _, ok := ix.names[doc]; ok {
		return true
	}

	ix.names[doc] = name
	ix.order = append(ix.order, doc)

	for i, line := range ix.breakRe.Split(string(content), -1) {
		seen := map[string]bool{}
		for _, term := range ix.split(line) {
			ix.tokens++
			if seen[term] {
				continue
			}
			seen[term] = true
			ix.postings[term] = append(ix.postings[term], Posting{Doc: doc, Line: i})
		}
	}
	return true
}

func (ix *Index) split(s string) []string {
	parts := ix.tokenRe.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, strings.ToLower(p))
	}
	return out
}

// Search returns documents containing every term of the query, in the
// order the documents were added.
func (ix *Index) Search(query string) []Hit {
	if ix == nil {
		return nil
	}
	terms := slices.Compact(sortedCopy(ix.split(query)))
	if len(terms) == 0 {
		return nil
	}

	lines := map[string][]int{}
	counts := map[string]int{}
	for _, term := range terms {
		perDoc := map[string]bool{}
		for _, p := range ix.postings[term] {
			lines[p.Doc] = append(lines[p.Doc], p.Line)
			if !perDoc[p.Doc] {
				perDoc[p.Doc] = true
				counts[p.Doc]++
			}
		}
	}

	var hits []Hit
	for _, doc := range ix.order {
		if counts[doc] != len(terms) {
			continue
		}
		l := lines[doc]
		slices.Sort(l)
		hits = append(hits, Hit{Doc: doc, Name: ix.names[doc], Lines: slices.Compact(l)})
	}
	return hits
}

// Postings returns the raw occurrences of a single term.
func (ix *Index) Postings(term string) []Posting {
	return slices.Clone(ix.postings[strings.ToLower(term)])
}

// Docs is the number of indexed documents.
func (ix *Index) Docs() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Terms is the number of distinct terms.
func (ix *Index) Terms() int { return len(ix.postings) }

// Tokens is the number of tokens seen, duplicates included.
func (ix *Index) Tokens() int { return ix.tokens }

func sortedCopy(s []string) []string {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}
