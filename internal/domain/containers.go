package domain

import (
	"slices"

	"github.com/auto-dns/fleet-dashboard/internal/util"
)

// Containers is one fetched page of container records.
type Containers struct {
	records []ContainerRecord
}

// NewContainers copies records so later changes by the caller are not observed.
func NewContainers(records []ContainerRecord) Containers {
	return Containers{records: slices.Clone(records)}
}

func (c Containers) Count() int {
	return len(c.records)
}

// Records returns a copy of the page.
func (c Containers) Records() []ContainerRecord {
	return slices.Clone(c.records)
}

// WithAlerts narrows the page to records that carry an alert.
func (c Containers) WithAlerts() Containers {
	return Containers{records: util.Filter(c.records, func(r ContainerRecord) bool { return r.HasAlert })}
}

func (c Containers) AlertCount() int {
	n := 0
	for _, r := range c.records {
		if r.HasAlert {
			n++
		}
	}
	return n
}

// Truncate keeps at most n records.
func (c Containers) Truncate(n int) Containers {
	if n < 0 {
		n = 0
	}
	if len(c.records) <= n {
		return c
	}
	return Containers{records: slices.Clone(c.records[:n])}
}

func (c Containers) Ids() []string {
	return util.Map(c.records, func(r ContainerRecord) string { return r.Id })
}
