package domain

import "time"

type ContainerType string

const (
	ContainerTypeAll      ContainerType = "all"
	ContainerTypePhysical ContainerType = "physical"
	ContainerTypeVirtual  ContainerType = "virtual"
)

func (ct ContainerType) IsValid() bool {
	switch ct {
	case ContainerTypeAll,
		ContainerTypePhysical,
		ContainerTypeVirtual:
		return true
	}
	return false
}

// ContainerRecord is one farming container as reported by the container API.
// Only the fields used for aggregation and filtering are interpreted here.
type ContainerRecord struct {
	Id       string
	Name     string
	Type     ContainerType
	TenantId string
	Purpose  string
	Location string
	Status   string
	HasAlert bool
	Created  time.Time
	Modified time.Time
}
