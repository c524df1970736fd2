package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type FilterField string

const (
	FieldSearch     FilterField = "search"
	FieldType       FilterField = "type"
	FieldTenant     FilterField = "tenant"
	FieldPurpose    FilterField = "purpose"
	FieldStatus     FilterField = "status"
	FieldAlertsOnly FilterField = "alerts_only"
)

// FilterAll is the "no restriction" sentinel for tenant, purpose and status.
const FilterAll = "all"

// Filters holds the active selections of the container list.
type Filters struct {
	search        string
	containerType ContainerType
	tenant        string
	purpose       string
	status        string
	alertsOnly    bool
}

// FiltersPatch is a partial update; nil fields are left alone.
type FiltersPatch struct {
	Search     *string
	Type       *ContainerType
	Tenant     *string
	Purpose    *string
	Status     *string
	AlertsOnly *bool
}

func EmptyFilters() Filters {
	return Filters{
		containerType: ContainerTypeAll,
		tenant:        FilterAll,
		purpose:       FilterAll,
		status:        FilterAll,
	}
}

func (f Filters) Search() string      { return f.search }
func (f Filters) Type() ContainerType { return f.containerType }
func (f Filters) Tenant() string      { return f.tenant }
func (f Filters) Purpose() string     { return f.purpose }
func (f Filters) Status() string      { return f.status }
func (f Filters) AlertsOnly() bool    { return f.alertsOnly }

func (f Filters) WithSearch(s string) Filters {
	f.search = strings.TrimSpace(s)
	return f
}

func (f Filters) WithType(t ContainerType) (Filters, error) {
	if t == "" {
		t = ContainerTypeAll
	}
	if !t.IsValid() {
		return f, NewFilterValueError(FieldType, string(t))
	}
	f.containerType = t
	return f, nil
}

func (f Filters) WithTenant(id string) Filters {
	f.tenant = orAll(id)
	return f
}

func (f Filters) WithPurpose(p string) Filters {
	f.purpose = orAll(p)
	return f
}

func (f Filters) WithStatus(s string) Filters {
	f.status = orAll(s)
	return f
}

func (f Filters) WithAlertsOnly(b bool) Filters {
	f.alertsOnly = b
	return f
}

// WithField replaces one field by name. An unknown name is reported as an
// InvariantViolationError and f is returned unchanged.
func (f Filters) WithField(field FilterField, value string) (Filters, error) {
	switch field {
	case FieldSearch:
		return f.WithSearch(value), nil
	case FieldType:
		return f.WithType(ContainerType(strings.ToLower(strings.TrimSpace(value))))
	case FieldTenant:
		return f.WithTenant(value), nil
	case FieldPurpose:
		return f.WithPurpose(value), nil
	case FieldStatus:
		return f.WithStatus(value), nil
	case FieldAlertsOnly:
		if strings.TrimSpace(value) == "" {
			return f.WithAlertsOnly(false), nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return f, NewFilterValueError(FieldAlertsOnly, value)
		}
		return f.WithAlertsOnly(b), nil
	default:
		return f, NewInvariantViolationError(fmt.Sprintf("unknown filter field %q", field))
	}
}

// Apply merges patch into f. Nothing is applied if any patched value is invalid.
func (f Filters) Apply(patch FiltersPatch) (Filters, error) {
	out := f
	if patch.Search != nil {
		out = out.WithSearch(*patch.Search)
	}
	if patch.Type != nil {
		var err error
		if out, err = out.WithType(*patch.Type); err != nil {
			return f, err
		}
	}
	if patch.Tenant != nil {
		out = out.WithTenant(*patch.Tenant)
	}
	if patch.Purpose != nil {
		out = out.WithPurpose(*patch.Purpose)
	}
	if patch.Status != nil {
		out = out.WithStatus(*patch.Status)
	}
	if patch.AlertsOnly != nil {
		out = out.WithAlertsOnly(*patch.AlertsOnly)
	}
	return out, nil
}

func (f Filters) HasActiveFilters() bool {
	return f.search != "" ||
		f.containerType != ContainerTypeAll ||
		f.tenant != FilterAll ||
		f.purpose != FilterAll ||
		f.status != FilterAll ||
		f.alertsOnly
}

// ToQueryParams projects the filters onto the container API query, leaving
// out every field still at its default.
func (f Filters) ToQueryParams() url.Values {
	q := url.Values{}
	if f.search != "" {
		q.Set(string(FieldSearch), f.search)
	}
	if f.containerType != ContainerTypeAll {
		q.Set(string(FieldType), string(f.containerType))
	}
	if f.tenant != FilterAll {
		q.Set(string(FieldTenant), f.tenant)
	}
	if f.purpose != FilterAll {
		q.Set(string(FieldPurpose), f.purpose)
	}
	if f.status != FilterAll {
		q.Set(string(FieldStatus), f.status)
	}
	if f.alertsOnly {
		q.Set(string(FieldAlertsOnly), "true")
	}
	return q
}

func (f Filters) Equal(o Filters) bool {
	return f == o
}

func orAll(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return FilterAll
	}
	return v
}

// WithField sets one patch field by name after validating value the same
// way Filters.WithField does.
func (p FiltersPatch) WithField(field FilterField, value string) (FiltersPatch, error) {
	f, err := EmptyFilters().WithField(field, value)
	if err != nil {
		return p, err
	}
	switch field {
	case FieldSearch:
		v := f.Search()
		p.Search = &v
	case FieldType:
		v := f.Type()
		p.Type = &v
	case FieldTenant:
		v := f.Tenant()
		p.Tenant = &v
	case FieldPurpose:
		v := f.Purpose()
		p.Purpose = &v
	case FieldStatus:
		v := f.Status()
		p.Status = &v
	case FieldAlertsOnly:
		v := f.AlertsOnly()
		p.AlertsOnly = &v
	}
	return p, nil
}
