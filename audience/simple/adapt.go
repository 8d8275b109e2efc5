package simple

import (
	"math"
	"slices"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/value"
)

// Upper bounds substituted for an open-ended range.
const (
	EmployeeCeiling  = 10_000_000
	RevenueCeiling   = 1_000_000_000_000
	MoneyCeiling     = 1_000_000_000
	AgeCeiling       = 120
	HouseholdCeiling = 20
)

// ToBoolean converts f into a flat AND group with one condition per
// populated leaf, in section order. The result never nests or negates.
// Node IDs are left empty so equal inputs give equal trees.
func ToBoolean(f Filter) expr.Group {
	var e emitter
	if b := f.Business; b != nil {
		e.text("business.company_name", field.OpContains, b.CompanyName)
		e.text("business.job_title", field.OpContains, b.JobTitle)
		e.list("business.seniority", field.OpIn, b.Seniority)
		e.list("business.department", field.OpIn, b.Department)
		e.list("business.industry", field.OpIn, b.Industry)
		e.between("business.employee_count", b.EmployeeCount, EmployeeCeiling)
		e.between("business.revenue", b.Revenue, RevenueCeiling)
		e.text("business.company_domain", field.OpEq, b.CompanyDomain)
	}
	if in := f.Intent; in != nil {
		e.list("intent.segment", field.OpIn, in.Segments)
		e.text("intent.topic", field.OpMatch, in.Topic)
		e.list("intent.keywords", field.OpMatchAny, in.Keywords)
		e.number("intent.score", field.OpGte, in.MinScore)
	}
	if fi := f.Financial; fi != nil {
		e.between("financial.income", fi.Income, MoneyCeiling)
		e.between("financial.net_worth", fi.NetWorth, MoneyCeiling)
		e.list("financial.credit_rating", field.OpIn, fi.CreditRating)
		e.toggle("financial.investor", fi.Investor)
	}
	if p := f.Personal; p != nil {
		e.text("personal.first_name", field.OpEq, p.FirstName)
		e.text("personal.last_name", field.OpEq, p.LastName)
		e.text("personal.gender", field.OpEq, p.Gender)
		e.between("personal.age", p.Age, AgeCeiling)
		e.list("personal.language", field.OpIn, p.Language)
		e.list("personal.education", field.OpIn, p.Education)
	}
	if fa := f.Family; fa != nil {
		e.text("family.marital_status", field.OpEq, fa.MaritalStatus)
		e.toggle("family.has_children", fa.HasChildren)
		e.between("family.household_size", fa.HouseholdSize, HouseholdCeiling)
	}
	if h := f.Housing; h != nil {
		e.toggle("housing.homeowner", h.Homeowner)
		e.between("housing.home_value", h.HomeValue, MoneyCeiling)
		e.list("housing.dwelling_type", field.OpIn, h.DwellingType)
		e.number("housing.year_built", field.OpGte, h.BuiltAfter)
	}
	if l := f.Location; l != nil {
		e.list("location.city", field.OpIn, l.Cities)
		e.list("location.state", field.OpIn, l.States)
		e.list("location.zip", field.OpIn, l.Zips)
		e.text("location.country", field.OpEq, l.Country)
		if l.Radius != nil {
			e.emit("location.radius", field.OpWithinRadius, value.GeoRadius{
				Lat:      l.Radius.Lat,
				Lng:      l.Radius.Lng,
				RadiusKm: l.Radius.RadiusKm,
			})
		}
	}
	if c := f.Contact; c != nil {
		e.toggle("contact.has_email", c.HasEmail)
		e.toggle("contact.has_phone", c.HasPhone)
		e.toggle("contact.has_linkedin", c.HasLinkedIn)
		e.toggle("contact.has_address", c.HasAddress)
	}
	return expr.Group{Connective: expr.And, Children: e.children}
}

type emitter struct {
	children []expr.Node
}

func (e *emitter) emit(key string, op field.Operator, v any) {
	e.children = append(e.children, expr.Condition{
		Category: expr.CategoryOf(key),
		Field:    key,
		Operator: op,
		Value:    v,
	})
}

func (e *emitter) text(key string, op field.Operator, s *string) {
	if s == nil || *s == "" {
		return
	}
	e.emit(key, op, *s)
}

func (e *emitter) list(key string, op field.Operator, l []string) {
	if len(l) == 0 {
		return
	}
	e.emit(key, op, slices.Clone(l))
}

func (e *emitter) number(key string, op field.Operator, n *float64) {
	if n == nil || math.IsNaN(*n) {
		return
	}
	e.emit(key, op, *n)
}

// between always emits both bounds: a missing min becomes 0 and a missing
// max becomes the field's ceiling.
func (e *emitter) between(key string, r *Range, ceiling float64) {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return
	}
	lo, hi := 0.0, ceiling
	if r.Min != nil {
		lo = *r.Min
	}
	if r.Max != nil {
		hi = *r.Max
	}
	e.emit(key, field.OpBetween, []any{lo, hi})
}

// toggle maps a boolean to isTrue/isFalse. The value is always the literal true.
func (e *emitter) toggle(key string, b *bool) {
	if b == nil {
		return
	}
	op := field.OpIsFalse
	if *b {
		op = field.OpIsTrue
	}
	e.emit(key, op, true)
}
