package pipeline

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/separk-1/GraphLER/model"
)

// ResolvedMention pairs one mention occurrence with its canonical entity.
type ResolvedMention struct {
	Kind    model.MentionKind
	RawText string
	Entity  *model.CanonicalEntity
}

// Resolution is the output of a batch resolution pass: the deduplicated
// canonical entity set plus the mapping from every mention to its entity.
type Resolution struct {
	entities []*model.CanonicalEntity
	byKey    map[model.EntityKey]*model.CanonicalEntity
	byRecord map[string][]*ResolvedMention
	// First-seen regulation entity per base CFR code, for merging a bare
	// base code with its own qualified form.
	regBase map[string]*model.CanonicalEntity
}

// Entities returns all canonical entities in first-sighting order.
func (r *Resolution) Entities() []*model.CanonicalEntity {
	return r.entities
}

// MentionsFor returns the resolved mentions of a record.
func (r *Resolution) MentionsFor(reportID string) []*ResolvedMention {
	return r.byRecord[reportID]
}

// EntityFor looks up the canonical entity a mention text resolves to.
func (r *Resolution) EntityFor(kind model.MentionKind, rawText string) (*model.CanonicalEntity, bool) {
	key := resolutionKey(kind, rawText)
	entity, ok := r.byKey[key]
	return entity, ok
}

// Resolver deduplicates and canonicalizes entity mentions across a batch.
// Resolution is re-derived in full each run; no canonical identities persist
// across runs outside the graph store itself.
type Resolver struct {
	reference model.CFRReference
	log       *slog.Logger
}

// NewResolver creates a resolver with the externally supplied CFR reference
// mapping. The reference may be nil when no regulation classification is
// available.
func NewResolver(reference model.CFRReference, logger *slog.Logger) *Resolver {
	return &Resolver{reference: reference, log: logger}
}

// Resolve groups all mentions of the validated batch by (kind, normalized
// text) and returns one canonical entity per group. Cited regulation codes
// resolve through CFR normalization, so textual variants of the same code
// share one entity. A bare base code and a qualified form of the same code
// merge into one entity with the fully-qualified form as the canonical label
// and the shorter form kept as an alias; distinct subsections of one base
// code are different regulations and stay distinct entities.
func (r *Resolver) Resolve(records []*model.IncidentRecord) *Resolution {
	resolution := &Resolution{
		byKey:    map[model.EntityKey]*model.CanonicalEntity{},
		byRecord: map[string][]*ResolvedMention{},
		regBase:  map[string]*model.CanonicalEntity{},
	}

	for _, record := range records {
		for _, mention := range record.Mentions {
			r.resolveMention(resolution, record.ReportID, mention.Kind, mention.Text)
		}
		for _, code := range record.Regulations {
			r.resolveMention(resolution, record.ReportID, model.MentionKindRegulation, code)
		}
	}

	return resolution
}

func (r *Resolver) resolveMention(resolution *Resolution, reportID string, kind model.MentionKind, rawText string) {
	key := resolutionKey(kind, rawText)
	if key.Name == "" {
		return
	}

	entity, seen := resolution.byKey[key]
	if !seen && kind == model.MentionKindRegulation {
		if canonical, base, ok := NormalizeCFRCode(rawText); ok {
			entity = r.mergeQualifiedForms(resolution, canonical, base)
			seen = entity != nil
			if seen {
				resolution.byKey[key] = entity
			}
		}
	}

	if !seen {
		entity = &model.CanonicalEntity{
			Kind: kind,
			Name: key.Name,
		}
		if kind == model.MentionKindRegulation {
			if canonical, base, ok := NormalizeCFRCode(rawText); ok {
				r.attachCFRClass(entity, canonical, base)
				if resolution.regBase[base] == nil {
					resolution.regBase[base] = entity
				}
			}
		}
		resolution.byKey[key] = entity
		resolution.entities = append(resolution.entities, entity)
	}

	resolution.byRecord[reportID] = append(resolution.byRecord[reportID], &ResolvedMention{
		Kind:    kind,
		RawText: rawText,
		Entity:  entity,
	})
}

// mergeQualifiedForms merges a regulation code with an already resolved form
// of the same base code when one of them is the unqualified base of the
// other. The fully-qualified form wins as the canonical label; the bare form
// is kept as an alias. Sibling subsections of one base code are different
// regulations and never merge.
func (r *Resolver) mergeQualifiedForms(resolution *Resolution, canonical string, base string) *model.CanonicalEntity {
	first := resolution.regBase[base]
	if first == nil {
		return nil
	}

	if canonical == base {
		// Bare base code after a qualified form of the same code.
		r.log.Warn("Resolution ambiguity for regulation code",
			slog.String("existing", first.Name),
			slog.String("variant", canonical),
		)
		first.AddAlias(canonical)
		return first
	}

	if first.Name == base {
		// Qualified form after the bare base code: promote the canonical label.
		r.log.Warn("Resolution ambiguity for regulation code",
			slog.String("existing", first.Name),
			slog.String("variant", canonical),
		)
		first.AddAlias(first.Name)
		first.Name = canonical
		r.attachCFRClass(first, canonical, base)
		return first
	}

	return nil
}

// attachCFRClass copies the reference classification onto a regulation
// entity, matching the fully-qualified code first and the base code second.
func (r *Resolver) attachCFRClass(entity *model.CanonicalEntity, canonical string, base string) {
	if r.reference == nil {
		return
	}
	class, ok := r.reference.Lookup(canonical)
	if !ok {
		class, ok = r.reference.Lookup(base)
	}
	if !ok {
		return
	}
	if entity.Metadata == nil {
		entity.Metadata = model.Metadata{}
	}
	entity.Metadata["class_1"] = class.Class1
	if class.Class2 != "" {
		entity.Metadata["class_2"] = class.Class2
	}
}

// resolutionKey computes the grouping key for a mention. Regulation mentions
// group by their canonical CFR code so that textual variants of one code
// resolve to one entity while distinct subsections stay distinct.
func resolutionKey(kind model.MentionKind, rawText string) model.EntityKey {
	if kind == model.MentionKindRegulation {
		if canonical, _, ok := NormalizeCFRCode(rawText); ok {
			return model.EntityKey{Kind: kind, Name: canonical}
		}
	}
	return model.EntityKey{Kind: kind, Name: NormalizeText(rawText)}
}

// NormalizeText lowercases, strips punctuation and collapses whitespace.
// Mentions compare equal exactly when their normalized forms match.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var cfrPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*C\.?\s*F\.?\s*R\.?\s*(?:§|part)?\s*(\d+(?:\.\d+[a-z]?)?)\s*((?:\(\s*[A-Za-z0-9]+\s*\))*)\s*$`)

// NormalizeCFRCode parses a cited regulation code and renders it in the
// canonical "10 CFR 50.72(b)(2)" form. Section letter suffixes as in
// "10 CFR 50.55a" are kept lowercase. It returns the canonical code, the
// base code without subsection qualifiers, and whether the text parsed as a
// CFR code at all.
func NormalizeCFRCode(s string) (canonical string, base string, ok bool) {
	match := cfrPattern.FindStringSubmatch(s)
	if match == nil {
		return "", "", false
	}

	title := stripLeadingZeros(match[1])
	part := strings.ToLower(match[2])
	if idx := strings.Index(part, "."); idx >= 0 {
		part = stripLeadingZeros(part[:idx]) + part[idx:]
	} else {
		part = stripLeadingZeros(part)
	}

	subsection := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, match[3]))

	base = fmt.Sprintf("%s CFR %s", title, part)
	return base + subsection, base, true
}

func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
