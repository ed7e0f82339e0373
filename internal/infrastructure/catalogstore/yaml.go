package catalogstore

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/billkit/backend/internal/domain/catalog"
)

// catalogFile is the YAML schema of one catalog version
type catalogFile struct {
	EffectiveDate string          `yaml:"effective_date"`
	Plans         []planYAML      `yaml:"plans"`
	Alignments    []alignmentYAML `yaml:"alignments"`
}

type planYAML struct {
	Name      string      `yaml:"name"`
	Product   string      `yaml:"product"`
	Category  string      `yaml:"category"`
	PriceList string      `yaml:"price_list"`
	Phases    []phaseYAML `yaml:"phases"`
}

type phaseYAML struct {
	Name           string       `yaml:"name"`
	Type           string       `yaml:"type"`
	Duration       durationYAML `yaml:"duration"`
	BillingPeriod  string       `yaml:"billing_period"`
	FixedPrice     *string      `yaml:"fixed_price"`
	RecurringPrice *string      `yaml:"recurring_price"`
	Usages         []usageYAML  `yaml:"usages"`
}

type durationYAML struct {
	Unit   string `yaml:"unit"`
	Length int    `yaml:"length"`
}

type usageYAML struct {
	Name          string `yaml:"name"`
	BillingPeriod string `yaml:"billing_period"`
}

type alignmentYAML struct {
	Product       string `yaml:"product"`
	Category      string `yaml:"category"`
	BillingPeriod string `yaml:"billing_period"`
	PriceList     string `yaml:"price_list"`
	PhaseType     string `yaml:"phase_type"`
	Alignment     string `yaml:"alignment"`
}

// LoadVersion parses one catalog version from YAML
func LoadVersion(data []byte) (Version, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Version{}, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}
	return file.toVersion()
}

// LoadVersionFile parses one catalog version from a YAML file
func LoadVersionFile(path string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Version{}, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	version, err := LoadVersion(data)
	if err != nil {
		return Version{}, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return version, nil
}

// LoadCatalog parses a set of catalog version files into a catalog
func LoadCatalog(paths []string, opts ...Option) (*StaticCatalog, error) {
	versions := make([]Version, 0, len(paths))
	for _, path := range paths {
		version, err := LoadVersionFile(path)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return NewStaticCatalog(versions, opts...), nil
}

func (f catalogFile) toVersion() (Version, error) {
	effective, err := time.Parse("2006-01-02", f.EffectiveDate)
	if err != nil {
		return Version{}, fmt.Errorf("invalid effective_date %q: %w", f.EffectiveDate, err)
	}

	version := Version{
		EffectiveDate: effective.UTC(),
		Plans:         make(map[string]*catalog.Plan, len(f.Plans)),
	}

	for _, p := range f.Plans {
		plan, err := p.toPlan()
		if err != nil {
			return Version{}, err
		}
		if _, exists := version.Plans[plan.Name]; exists {
			return Version{}, fmt.Errorf("duplicate plan %q", plan.Name)
		}
		version.Plans[plan.Name] = plan
	}

	for _, a := range f.Alignments {
		alignment := catalog.BillingAlignment(a.Alignment)
		if !alignment.IsValid() {
			return Version{}, fmt.Errorf("invalid alignment %q", a.Alignment)
		}
		version.AlignmentRules = append(version.AlignmentRules, AlignmentRule{
			Product:       a.Product,
			Category:      catalog.ProductCategory(a.Category),
			BillingPeriod: catalog.BillingPeriod(a.BillingPeriod),
			PriceList:     a.PriceList,
			PhaseType:     catalog.PhaseType(a.PhaseType),
			Alignment:     alignment,
		})
	}

	return version, nil
}

func (p planYAML) toPlan() (*catalog.Plan, error) {
	plan := &catalog.Plan{
		Name:      p.Name,
		Product:   p.Product,
		Category:  catalog.ProductCategory(p.Category),
		PriceList: p.PriceList,
		Phases:    make([]catalog.PlanPhase, 0, len(p.Phases)),
	}
	if plan.Name == "" {
		return nil, fmt.Errorf("plan without a name")
	}

	for _, ph := range p.Phases {
		phase, err := ph.toPhase(p.Name)
		if err != nil {
			return nil, err
		}
		plan.Phases = append(plan.Phases, phase)
	}
	return plan, nil
}

func (ph phaseYAML) toPhase(planName string) (catalog.PlanPhase, error) {
	period := catalog.BillingPeriod(ph.BillingPeriod)
	if ph.BillingPeriod == "" {
		period = catalog.BillingPeriodNone
	}
	if !period.IsValid() {
		return catalog.PlanPhase{}, fmt.Errorf("plan %q phase %q: invalid billing period %q", planName, ph.Name, ph.BillingPeriod)
	}

	phase := catalog.PlanPhase{
		Name:          ph.Name,
		Type:          catalog.PhaseType(ph.Type),
		BillingPeriod: period,
		Duration: catalog.PhaseDuration{
			Unit:   catalog.DurationUnit(ph.Duration.Unit),
			Length: ph.Duration.Length,
		},
	}

	if ph.FixedPrice != nil {
		price, err := decimal.NewFromString(*ph.FixedPrice)
		if err != nil {
			return catalog.PlanPhase{}, fmt.Errorf("plan %q phase %q: invalid fixed price %q", planName, ph.Name, *ph.FixedPrice)
		}
		phase.FixedPrice = &price
	}
	if ph.RecurringPrice != nil {
		price, err := decimal.NewFromString(*ph.RecurringPrice)
		if err != nil {
			return catalog.PlanPhase{}, fmt.Errorf("plan %q phase %q: invalid recurring price %q", planName, ph.Name, *ph.RecurringPrice)
		}
		phase.RecurringPrice = &price
	}

	for _, u := range ph.Usages {
		phase.Usages = append(phase.Usages, catalog.Usage{
			Name:          u.Name,
			BillingPeriod: catalog.BillingPeriod(u.BillingPeriod),
		})
	}

	return phase, nil
}
