package domain

import "fmt"

// PageID identifies a wizard page. Ids are stable for the lifetime of a
// wizard instance, including while a page is hidden. Ascending id order is
// the page sequence.
type PageID int

// Well-known page ids. Dynamic pages are slotted between them.
const (
	PageNone                 PageID = -1
	PageIntroduction         PageID = 0x1000
	PageTargetDirectory      PageID = 0x2000
	PageComponentSelection   PageID = 0x3000
	PageLicenseCheck         PageID = 0x4000
	PageReadyForInstallation PageID = 0x6000
	PagePerformInstallation  PageID = 0x7000
	PageInstallationFinished PageID = 0x8000
	PageInstallationError    PageID = 0x9000
)

var pageNames = map[PageID]string{
	PageIntroduction:         "Introduction",
	PageTargetDirectory:      "TargetDirectory",
	PageComponentSelection:   "ComponentSelection",
	PageLicenseCheck:         "LicenseCheck",
	PageReadyForInstallation: "ReadyForInstallation",
	PagePerformInstallation:  "PerformInstallation",
	PageInstallationFinished: "InstallationFinished",
	PageInstallationError:    "InstallationError",
}

// String returns the well-known name of the id, or its hex value.
func (id PageID) String() string {
	if id == PageNone {
		return "None"
	}
	if name, ok := pageNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", int(id))
}

// ParsePageID resolves a well-known page name (as used by scripts and
// configuration) to its id.
func ParsePageID(name string) (PageID, bool) {
	for id, n := range pageNames {
		if n == name {
			return id, true
		}
	}
	return PageNone, false
}
