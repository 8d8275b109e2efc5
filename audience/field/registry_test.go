package field

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(key string, cat Category, t ValueType, ops ...Operator) Definition {
	return Definition{
		Key:              key,
		Category:         cat,
		ValueType:        t,
		AllowedOperators: ops,
		RelationalMapper: strings.ReplaceAll(key, ".", "_"),
	}
}

func TestDefaultCatalogLoads(t *testing.T) {
	r := Default()
	require.NotNil(t, r)
	assert.Greater(t, r.Len(), 30)
	assert.Same(t, r, Default())

	d, ok := r.Lookup("business.company_name")
	require.True(t, ok)
	assert.Equal(t, CategoryBusiness, d.Category)
	assert.Equal(t, TypeString, d.ValueType)
	assert.Equal(t, "company_name", d.RelationalMapper)
	assert.True(t, d.Searchable())
}

func TestDefaultCatalogInvariants(t *testing.T) {
	r := Default()
	seen := map[string]bool{}
	for _, d := range r.All() {
		assert.False(t, seen[d.Key], "duplicate key %s", d.Key)
		seen[d.Key] = true

		assert.True(t, strings.HasPrefix(d.Key, string(d.Category)+"."), "key %s outside category %s", d.Key, d.Category)
		assert.NotEmpty(t, d.AllowedOperators, d.Key)
		if d.ValueType.IsEnum() {
			assert.NotEmpty(t, d.EnumValues, d.Key)
		} else {
			assert.Empty(t, d.EnumValues, d.Key)
		}
	}
}

func TestAccessorsAreTotal(t *testing.T) {
	r := Default()
	for _, key := range []string{"", "nope", "business.nope", "business"} {
		_, ok := r.Lookup(key)
		assert.False(t, ok, key)
		assert.False(t, r.Has(key), key)
		assert.Nil(t, r.OperatorsFor(key), key)
		_, ok = r.ValueTypeFor(key)
		assert.False(t, ok, key)
		_, ok = r.EnumValuesFor(key)
		assert.False(t, ok, key)
		for _, op := range Operators {
			assert.False(t, r.Allows(key, op), "%s %s", key, op)
		}
	}
}

func TestEnumValuesFor(t *testing.T) {
	r := Default()
	vals, ok := r.EnumValuesFor("business.seniority")
	require.True(t, ok)
	assert.Contains(t, vals, "cxo")
	assert.NotContains(t, vals, "intern")

	_, ok = r.EnumValuesFor("business.company_name")
	assert.False(t, ok)
}

func TestAccessorsReturnCopies(t *testing.T) {
	r := Default()
	ops := r.OperatorsFor("business.company_name")
	require.NotEmpty(t, ops)
	ops[0] = OpWithinRadius
	assert.False(t, r.Allows("business.company_name", OpWithinRadius))

	d, _ := r.Lookup("business.seniority")
	d.EnumValues[0] = "intern"
	vals, _ := r.EnumValuesFor("business.seniority")
	assert.NotContains(t, vals, "intern")
}

func TestFieldsByCategoryAndCategories(t *testing.T) {
	r, err := New(
		def("contact.has_email", CategoryContact, TypeBoolean, OpIsTrue, OpIsFalse),
		def("business.job_title", CategoryBusiness, TypeString, OpEq),
		def("contact.has_phone", CategoryContact, TypeBoolean, OpIsTrue),
	)
	require.NoError(t, err)

	assert.Equal(t, []Category{CategoryContact, CategoryBusiness}, r.Categories())
	assert.Equal(t, []string{"contact.has_email", "business.job_title", "contact.has_phone"}, r.Keys())

	contact := r.FieldsByCategory(CategoryContact)
	require.Len(t, contact, 2)
	assert.Equal(t, "contact.has_email", contact[0].Key)
	assert.Equal(t, "contact.has_phone", contact[1].Key)
	assert.Empty(t, r.FieldsByCategory(CategoryHousing))
}

func TestNewRejectsBrokenDefinitions(t *testing.T) {
	enum := def("business.seniority", CategoryBusiness, TypeEnumList, OpIn)
	withEnum := def("business.job_title", CategoryBusiness, TypeString, OpEq)
	withEnum.EnumValues = []string{"x"}
	badColumn := def("business.job_title", CategoryBusiness, TypeString, OpEq)
	badColumn.RelationalMapper = "job title; DROP"

	tests := []struct {
		name string
		defs []Definition
	}{
		{"bad key", []Definition{def("Business", CategoryBusiness, TypeString, OpEq)}},
		{"unknown category", []Definition{def("misc.thing", "misc", TypeString, OpEq)}},
		{"unknown type", []Definition{def("business.x", CategoryBusiness, "blob", OpEq)}},
		{"no operators", []Definition{def("business.x", CategoryBusiness, TypeString)}},
		{"unknown operator", []Definition{def("business.x", CategoryBusiness, TypeString, "like")}},
		{"repeated operator", []Definition{def("business.x", CategoryBusiness, TypeString, OpEq, OpEq)}},
		{"enum without values", []Definition{enum}},
		{"values without enum", []Definition{withEnum}},
		{"bad column", []Definition{badColumn}},
		{"duplicate key", []Definition{
			def("business.x", CategoryBusiness, TypeString, OpEq),
			def("business.x", CategoryBusiness, TypeNumber, OpGte),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.defs...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition), err.Error())
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader(`
version: 1
fields:
  - key: business.x
    category: business
    type: string
    operators: [eq]
    column: x
    colour: red
`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	r, err := Load(strings.NewReader(`
version: 1
fields:
  - key: housing.homeowner
    category: housing
    type: boolean
    operators: [isTrue, isFalse]
    column: homeowner
`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Allows("housing.homeowner", OpIsTrue))
	assert.False(t, r.Allows("housing.homeowner", OpEq))
	d, _ := r.Lookup("housing.homeowner")
	assert.False(t, d.Searchable())
}

func TestToJSON(t *testing.T) {
	r, err := New(def("contact.has_email", CategoryContact, TypeBoolean, OpIsTrue))
	require.NoError(t, err)
	b, err := r.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"categories": ["contact"],
		"fields": [{
			"key": "contact.has_email",
			"category": "contact",
			"valueType": "boolean",
			"allowedOperators": ["isTrue"],
			"relationalMapper": "contact_has_email"
		}]
	}`, string(b))
}

func TestOperatorNullary(t *testing.T) {
	for _, op := range Operators {
		want := op == OpExists || op == OpNotExists || op == OpIsTrue || op == OpIsFalse
		if op.Nullary() != want {
			t.Errorf("%s.Nullary() = %v", op, op.Nullary())
		}
	}
	if Operator("like").Valid() {
		t.Error("like should not be a valid operator")
	}
}
