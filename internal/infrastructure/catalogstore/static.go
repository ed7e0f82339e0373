// Package catalogstore provides catalog.Catalog implementations backed
// by static, versioned catalog definitions loaded from YAML files.
package catalogstore

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/catalog"
)

// AlignmentRule maps plan phases to a billing alignment. Empty fields
// match anything; the first matching rule wins.
type AlignmentRule struct {
	Product       string
	Category      catalog.ProductCategory
	BillingPeriod catalog.BillingPeriod
	PriceList     string
	PhaseType     catalog.PhaseType
	Alignment     catalog.BillingAlignment
}

func (r AlignmentRule) matches(spec catalog.PlanPhaseSpecifier) bool {
	if r.Product != "" && r.Product != spec.Product {
		return false
	}
	if r.Category != "" && r.Category != spec.Category {
		return false
	}
	if r.BillingPeriod != "" && r.BillingPeriod != spec.BillingPeriod {
		return false
	}
	if r.PriceList != "" && r.PriceList != spec.PriceList {
		return false
	}
	if r.PhaseType != "" && r.PhaseType != spec.PhaseType {
		return false
	}
	return true
}

// Version is one dated snapshot of the catalog
type Version struct {
	EffectiveDate  time.Time
	Plans          map[string]*catalog.Plan
	AlignmentRules []AlignmentRule
}

// StaticCatalog implements catalog.Catalog over a set of dated
// versions. Lookups resolve against the newest version effective at or
// before the requested instant; instants before the first version fall
// back to the first version.
type StaticCatalog struct {
	versions []Version
	logger   *zap.Logger
}

// Option configures a StaticCatalog
type Option func(*StaticCatalog)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *StaticCatalog) {
		c.logger = logger
	}
}

// NewStaticCatalog creates a catalog over the given versions
func NewStaticCatalog(versions []Version, opts ...Option) *StaticCatalog {
	sorted := make([]Version, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})

	c := &StaticCatalog{versions: sorted}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (c *StaticCatalog) versionAt(effective time.Time) *Version {
	if len(c.versions) == 0 {
		return nil
	}
	selected := &c.versions[0]
	for i := range c.versions {
		if c.versions[i].EffectiveDate.After(effective) {
			break
		}
		selected = &c.versions[i]
	}
	return selected
}

// FindPlan returns the plan by name, effective at the given instant
func (c *StaticCatalog) FindPlan(name string, effective time.Time) (*catalog.Plan, error) {
	version := c.versionAt(effective)
	if version == nil {
		return nil, catalog.ErrPlanNotFound
	}
	plan, ok := version.Plans[name]
	if !ok {
		c.logger.Debug("plan not found in catalog",
			zap.String("plan", name),
			zap.Time("effective", effective))
		return nil, catalog.ErrPlanNotFound
	}
	return plan, nil
}

// FindPhase returns a phase by its fully qualified "plan-phase" name
func (c *StaticCatalog) FindPhase(name string, effective time.Time) (*catalog.PlanPhase, error) {
	version := c.versionAt(effective)
	if version == nil {
		return nil, catalog.ErrPhaseNotFound
	}
	for _, plan := range version.Plans {
		if phase, ok := plan.FindPhase(name); ok {
			return phase, nil
		}
	}
	return nil, catalog.ErrPhaseNotFound
}

// BillingAlignment resolves the alignment policy for a plan phase
func (c *StaticCatalog) BillingAlignment(spec catalog.PlanPhaseSpecifier, requested time.Time) (catalog.BillingAlignment, error) {
	version := c.versionAt(requested)
	if version == nil {
		return "", catalog.ErrNoAlignment
	}
	for _, rule := range version.AlignmentRules {
		if rule.matches(spec) {
			return rule.Alignment, nil
		}
	}
	return "", catalog.ErrNoAlignment
}
