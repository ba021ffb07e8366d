package core

type Capability string

// Capabilities
const (
	CapManageContent    Capability = "content:manage"
	CapRecordAttendance Capability = "attendance:record"
	CapGraduate         Capability = "course:graduate"
	CapManageProgress   Capability = "progress:manage" // act on behalf of other members
)

var AllCapabilities = []Capability{CapManageContent, CapRecordAttendance, CapGraduate, CapManageProgress}

// Caller is the already authorized identity a request is made on behalf of.
type Caller struct {
	MemberID       string
	OrganizationID string
	Capabilities   []Capability
}

func (c Caller) Can(capability Capability) bool {
	for _, cp := range c.Capabilities {
		if cp == capability {
			return true
		}
	}
	return false
}

// ActsFor tells whether the caller may act on the progress of the given member.
func (c Caller) ActsFor(memberID string) bool {
	return (memberID != "" && c.MemberID == memberID) || c.Can(CapManageProgress)
}

// Administers tells whether the caller holds `capability` within the given organization.
func (c Caller) Administers(orgID string, capability Capability) bool {
	return c.OrganizationID == orgID && c.Can(capability)
}

func ParseCapabilities(values []string) []Capability {
	caps := make([]Capability, 0, len(values))
	for _, v := range values {
		if v = CleanString(v, true); v != "" {
			caps = append(caps, Capability(v))
		}
	}
	return caps
}
