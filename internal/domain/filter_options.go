package domain

import "slices"

type TenantOption struct {
	Id   string
	Name string
}

// FilterOptions is the catalog used to build the filter controls.
type FilterOptions struct {
	Types    []ContainerType
	Tenants  []TenantOption
	Purposes []string
	Statuses []string
}

func EmptyFilterOptions() FilterOptions {
	return FilterOptions{
		Types:    []ContainerType{},
		Tenants:  []TenantOption{},
		Purposes: []string{},
		Statuses: []string{},
	}
}

func (o FilterOptions) IsEmpty() bool {
	return len(o.Types) == 0 && len(o.Tenants) == 0 && len(o.Purposes) == 0 && len(o.Statuses) == 0
}

func (o FilterOptions) Clone() FilterOptions {
	out := FilterOptions{
		Types:    slices.Clone(o.Types),
		Tenants:  slices.Clone(o.Tenants),
		Purposes: slices.Clone(o.Purposes),
		Statuses: slices.Clone(o.Statuses),
	}
	if out.Types == nil {
		out.Types = []ContainerType{}
	}
	if out.Tenants == nil {
		out.Tenants = []TenantOption{}
	}
	if out.Purposes == nil {
		out.Purposes = []string{}
	}
	if out.Statuses == nil {
		out.Statuses = []string{}
	}
	return out
}
