package field

import "slices"

// Category groups fields in the catalog and in the UI.
type Category string

const (
	CategoryIntent    Category = "intent"
	CategoryDate      Category = "date"
	CategoryBusiness  Category = "business"
	CategoryFinancial Category = "financial"
	CategoryPersonal  Category = "personal"
	CategoryFamily    Category = "family"
	CategoryHousing   Category = "housing"
	CategoryLocation  Category = "location"
	CategoryContact   Category = "contact"
)

var knownCategories = []Category{
	CategoryIntent, CategoryDate, CategoryBusiness, CategoryFinancial, CategoryPersonal,
	CategoryFamily, CategoryHousing, CategoryLocation, CategoryContact,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	return slices.Contains(knownCategories, c)
}

// ValueType describes the shape a condition value must have.
type ValueType string

const (
	TypeString      ValueType = "string"
	TypeStringList  ValueType = "string-list"
	TypeNumber      ValueType = "number"
	TypeNumberRange ValueType = "number-range"
	TypeNumberList  ValueType = "number-list"
	TypeEnum        ValueType = "enum"
	TypeEnumList    ValueType = "enum-list"
	TypeBoolean     ValueType = "boolean"
	TypeDate        ValueType = "date"
	TypeDateRange   ValueType = "date-range"
	TypeGeoPoint    ValueType = "geo-point"
	TypeGeoRadius   ValueType = "geo-radius"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeStringList, TypeNumber, TypeNumberRange, TypeNumberList,
		TypeEnum, TypeEnumList, TypeBoolean, TypeDate, TypeDateRange, TypeGeoPoint, TypeGeoRadius:
		return true
	default:
		return false
	}
}

// IsEnum reports whether values of this type are drawn from a closed set.
func (t ValueType) IsEnum() bool {
	return t == TypeEnum || t == TypeEnumList
}

// Definition is one immutable catalog entry.
type Definition struct {
	Key              string     `yaml:"key" json:"key"`
	Label            string     `yaml:"label,omitempty" json:"label,omitempty"`
	Category         Category   `yaml:"category" json:"category"`
	ValueType        ValueType  `yaml:"type" json:"valueType"`
	AllowedOperators []Operator `yaml:"operators" json:"allowedOperators"`
	RelationalMapper string     `yaml:"column" json:"relationalMapper"`
	SearchMapper     string     `yaml:"search,omitempty" json:"searchMapper,omitempty"`
	EnumValues       []string   `yaml:"enum,omitempty" json:"enumValues,omitempty"`
}

// Searchable reports whether the field can be lowered to a search filter.
func (d Definition) Searchable() bool {
	return d.SearchMapper != ""
}

// Allows reports whether op is in the field's operator set.
func (d Definition) Allows(op Operator) bool {
	return slices.Contains(d.AllowedOperators, op)
}

// HasEnumValue reports whether v is one of the field's enum values.
func (d Definition) HasEnumValue(v string) bool {
	return slices.Contains(d.EnumValues, v)
}

func (d Definition) clone() Definition {
	d.AllowedOperators = slices.Clone(d.AllowedOperators)
	d.EnumValues = slices.Clone(d.EnumValues)
	return d
}
