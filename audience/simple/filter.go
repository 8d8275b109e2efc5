// Package simple converts the flat "simple mode" audience filter into a
// boolean expression tree.
package simple

import (
	"encoding/json"
	"fmt"
)

// Filter is the sparse simple-mode filter object. Every section is optional.
type Filter struct {
	Business  *Business  `json:"business,omitempty"`
	Intent    *Intent    `json:"intent,omitempty"`
	Financial *Financial `json:"financial,omitempty"`
	Personal  *Personal  `json:"personal,omitempty"`
	Family    *Family    `json:"family,omitempty"`
	Housing   *Housing   `json:"housing,omitempty"`
	Location  *Location  `json:"location,omitempty"`
	Contact   *Contact   `json:"contact,omitempty"`
}

// Range is an inclusive numeric range; either bound may be omitted.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Radius is a circle around a point.
type Radius struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radiusKm"`
}

type Business struct {
	CompanyName   *string  `json:"companyName,omitempty"`
	JobTitle      *string  `json:"jobTitle,omitempty"`
	Seniority     []string `json:"seniority,omitempty"`
	Department    []string `json:"department,omitempty"`
	Industry      []string `json:"industry,omitempty"`
	EmployeeCount *Range   `json:"employeeCount,omitempty"`
	Revenue       *Range   `json:"revenue,omitempty"`
	CompanyDomain *string  `json:"companyDomain,omitempty"`
}

type Intent struct {
	Segments []string `json:"segments,omitempty"`
	Topic    *string  `json:"topic,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	MinScore *float64 `json:"minScore,omitempty"`
}

type Financial struct {
	Income       *Range   `json:"income,omitempty"`
	NetWorth     *Range   `json:"netWorth,omitempty"`
	CreditRating []string `json:"creditRating,omitempty"`
	Investor     *bool    `json:"investor,omitempty"`
}

type Personal struct {
	FirstName *string  `json:"firstName,omitempty"`
	LastName  *string  `json:"lastName,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	Age       *Range   `json:"age,omitempty"`
	Language  []string `json:"language,omitempty"`
	Education []string `json:"education,omitempty"`
}

type Family struct {
	MaritalStatus *string `json:"maritalStatus,omitempty"`
	HasChildren   *bool   `json:"hasChildren,omitempty"`
	HouseholdSize *Range  `json:"householdSize,omitempty"`
}

type Housing struct {
	Homeowner    *bool    `json:"homeowner,omitempty"`
	HomeValue    *Range   `json:"homeValue,omitempty"`
	DwellingType []string `json:"dwellingType,omitempty"`
	BuiltAfter   *float64 `json:"builtAfter,omitempty"`
}

type Location struct {
	Cities  []string `json:"cities,omitempty"`
	States  []string `json:"states,omitempty"`
	Zips    []string `json:"zips,omitempty"`
	Country *string  `json:"country,omitempty"`
	Radius  *Radius  `json:"radius,omitempty"`
}

type Contact struct {
	HasEmail    *bool `json:"hasEmail,omitempty"`
	HasPhone    *bool `json:"hasPhone,omitempty"`
	HasLinkedIn *bool `json:"hasLinkedIn,omitempty"`
	HasAddress  *bool `json:"hasAddress,omitempty"`
}

// Parse decodes a sparse simple filter. Unknown keys are ignored.
func Parse(b []byte) (Filter, error) {
	var f Filter
	if err := json.Unmarshal(b, &f); err != nil {
		return Filter{}, fmt.Errorf("decode simple filter: %w", err)
	}
	return f, nil
}
