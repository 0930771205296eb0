// internal/directory/profile/resolver.go
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"visa-directory/internal/models"
)

var ErrProfileNotFound = errors.New("PROFILE_NOT_FOUND")

// Identifier addresses one business either by id or by its slug pair.
type Identifier struct {
	ID           string `json:"id,omitempty"`
	LocationSlug string `json:"locationSlug,omitempty"`
	NameSlug     string `json:"nameSlug,omitempty"`
}

func (i Identifier) String() string {
	if i.ID != "" {
		return i.ID
	}
	if i.LocationSlug == "" && i.NameSlug == "" {
		return ""
	}
	return i.LocationSlug + "/" + i.NameSlug
}

func (i Identifier) IsZero() bool {
	return strings.TrimSpace(i.ID) == "" &&
		strings.TrimSpace(i.LocationSlug) == "" &&
		strings.TrimSpace(i.NameSlug) == ""
}

// ProfileNotFoundError keeps the attempted identifier for diagnostics.
type ProfileNotFoundError struct {
	Identifier string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("%s: no business matches %q", ErrProfileNotFound, e.Identifier)
}

func (e *ProfileNotFoundError) Is(target error) bool {
	return target == ErrProfileNotFound
}

type Strategy string

const (
	StrategyID       Strategy = "id"
	StrategySlug     Strategy = "slug"
	StrategyName     Strategy = "name"
	StrategyFallback Strategy = "fallback"
)

// Resolution is the outcome of a lookup. Redirect is set whenever the caller reached the
// business through anything other than its canonical slug.
type Resolution struct {
	Business      models.Business `json:"business"`
	CanonicalSlug string          `json:"canonicalSlug"`
	CanonicalURL  string          `json:"canonicalUrl"`
	Redirect      bool            `json:"redirect"`
	Strategy      Strategy        `json:"strategy"`
}

type Options struct {
	BasePath string
	// FallbackToFirst answers unmatched lookups with the business having the smallest id.
	FallbackToFirst bool
}

// Resolver indexes one record set. Build a new one when the record set changes.
type Resolver struct {
	records []models.Business
	byID    map[string]int
	bySlug  map[string]int
	slugs   []string
	names   []string
	opts    Options
}

func NewResolver(records []models.Business, opts Options) *Resolver {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	r := &Resolver{
		records: records,
		byID:    make(map[string]int, len(records)),
		bySlug:  make(map[string]int, len(records)),
		slugs:   make([]string, len(records)),
		names:   make([]string, len(records)),
		opts:    opts,
	}
	for i, b := range records {
		r.names[i] = NormalizeName(b.Name)
		if _, ok := r.byID[b.ID]; !ok {
			r.byID[b.ID] = i
		}
	}
	r.assignSlugs()
	return r
}

// assignSlugs gives every record a slug of its own. Among records sharing a base slug the
// smallest id keeps it and the rest get "-<id>" appended to the name slug.
func (r *Resolver) assignSlugs() {
	order := make([]int, len(r.records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return r.records[order[a]].ID < r.records[order[b]].ID
	})

	base := make([]string, len(r.records))
	for _, i := range order {
		base[i] = CanonicalSlug(r.records[i])
		if _, taken := r.bySlug[base[i]]; !taken {
			r.bySlug[base[i]] = i
			r.slugs[i] = base[i]
		}
	}

	for _, i := range order {
		if r.slugs[i] != "" {
			continue
		}
		stem := base[i]
		if id := Slugify(r.records[i].ID); id != "" {
			stem += "-" + id
		}
		slug := stem
		for n := 2; ; n++ {
			if _, taken := r.bySlug[slug]; !taken {
				break
			}
			slug = fmt.Sprintf("%s-%d", stem, n)
		}
		r.bySlug[slug] = i
		r.slugs[i] = slug
	}
}

// CanonicalSlug returns the slug this resolver assigned to b. Businesses outside the
// record set get the plain CanonicalSlug.
func (r *Resolver) CanonicalSlug(b models.Business) string {
	if i, ok := r.byID[b.ID]; ok && r.records[i].Name == b.Name && r.records[i].Address == b.Address {
		return r.slugs[i]
	}
	return CanonicalSlug(b)
}

// CanonicalURL uses the resolver's base path.
func (r *Resolver) CanonicalURL(b models.Business) string {
	return joinURL(r.opts.BasePath, r.CanonicalSlug(b))
}

// Resolve maps an identifier to exactly one business.
//
// By id: exact id, else the id is treated as a legacy name fragment. By slug pair: the
// canonical slug renders in place and any other spelling of it (case, padding) redirects;
// else the name slug is tried as a fragment. Fragment matches are bidirectional
// substrings of the normalized name; an exact normalized name wins, then the smallest id.
func (r *Resolver) Resolve(id Identifier) (*Resolution, error) {
	if id.IsZero() {
		return nil, &ProfileNotFoundError{Identifier: id.String()}
	}

	if raw := strings.TrimSpace(id.ID); raw != "" {
		if i, ok := r.byID[raw]; ok {
			return r.resolution(i, true, StrategyID), nil
		}
		if i, ok := r.byFragment(raw); ok {
			return r.resolution(i, true, StrategyName), nil
		}
		return r.fallback(id)
	}

	requested := id.LocationSlug + "/" + id.NameSlug
	slug := strings.ToLower(strings.TrimSpace(id.LocationSlug)) + "/" + strings.ToLower(strings.TrimSpace(id.NameSlug))
	if i, ok := r.bySlug[slug]; ok {
		return r.resolution(i, requested != r.slugs[i], StrategySlug), nil
	}
	if i, ok := r.byFragment(id.NameSlug); ok {
		return r.resolution(i, true, StrategyName), nil
	}
	return r.fallback(id)
}

func (r *Resolver) byFragment(fragment string) (int, bool) {
	frag := NormalizeName(fragment)
	if frag == "" {
		return 0, false
	}

	best, exact := -1, false
	for i, name := range r.names {
		if name == "" {
			continue
		}
		if !strings.Contains(name, frag) && !strings.Contains(frag, name) {
			continue
		}
		isExact := name == frag
		switch {
		case best < 0,
			isExact && !exact,
			isExact == exact && r.records[i].ID < r.records[best].ID:
			best, exact = i, isExact
		}
	}
	return best, best >= 0
}

func (r *Resolver) fallback(id Identifier) (*Resolution, error) {
	if !r.opts.FallbackToFirst || len(r.records) == 0 {
		return nil, &ProfileNotFoundError{Identifier: id.String()}
	}
	first := 0
	for i := range r.records {
		if r.records[i].ID < r.records[first].ID {
			first = i
		}
	}
	return r.resolution(first, true, StrategyFallback), nil
}

func (r *Resolver) resolution(i int, redirect bool, strategy Strategy) *Resolution {
	b := r.records[i]
	return &Resolution{
		Business:      b,
		CanonicalSlug: r.slugs[i],
		CanonicalURL:  joinURL(r.opts.BasePath, r.slugs[i]),
		Redirect:      redirect,
		Strategy:      strategy,
	}
}
