package cache

import "fmt"

// Tag helpers keep invalidation names consistent between readers and writers.

func EventTag(eventID int64) string { return fmt.Sprintf("event:%d", eventID) }

func VolunteerTag(volunteerID int64) string { return fmt.Sprintf("volunteer:%d", volunteerID) }

func OrganizationTag(organizationID int64) string {
	return fmt.Sprintf("organization:%d", organizationID)
}

// CatalogTag covers anything derived from the set of open events
const CatalogTag = "catalog"
