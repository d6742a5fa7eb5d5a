// Package navigation is the client model of the app: the role-gated shell, the login and
// session restore flows, and the curriculum navigator of a batch.
package navigation

import "github.com/gothwad/classesx/core/user"

type Tab string

const (
	TabBatches    Tab = "Batches"
	TabClasses    Tab = "Classes"
	TabStudents   Tab = "Students"
	TabTests      Tab = "Tests"
	TabFees       Tab = "Fees"
	TabAttendance Tab = "Attendance"
)

// Resource is a cross-cutting screen shown over the active tab.
type Resource string

const (
	ResourceLibrary    Resource = "Library"
	ResourcePYQs       Resource = "PYQs"
	ResourceTutor      Resource = "Edu AI"
	ResourcePapers     Resource = "Papers"
	ResourceSeries     Resource = "Series"
	ResourceResults    Resource = "Results"
	ResourceNotes      Resource = "Notes"
	ResourceAddStudent Resource = "Add Student"
)

type Variant string

const (
	VariantAdmin  Variant = "admin"
	VariantMember Variant = "member"
)

// Capabilities is what a signed in user may reach and change.
// The set of implementations is closed: AdminNavigator and MemberNavigator.
type Capabilities interface {
	Variant() Variant
	Tabs() []Tab
	Resources() []Resource
	CanManageCurriculum() bool
	CanSendNotifications() bool
	CanManageSettings() bool
	BypassesMaintenance() bool

	sealed()
}

var memberResources = []Resource{
	ResourceLibrary, ResourcePYQs, ResourceTutor, ResourcePapers, ResourceSeries, ResourceResults, ResourceNotes,
}

type AdminNavigator struct{}

func (AdminNavigator) Variant() Variant { return VariantAdmin }

func (AdminNavigator) Tabs() []Tab {
	return []Tab{TabBatches, TabClasses, TabStudents, TabTests, TabFees, TabAttendance}
}

func (AdminNavigator) Resources() []Resource {
	return append(append([]Resource{}, memberResources...), ResourceAddStudent)
}

func (AdminNavigator) CanManageCurriculum() bool  { return true }
func (AdminNavigator) CanSendNotifications() bool { return true }
func (AdminNavigator) CanManageSettings() bool    { return true }
func (AdminNavigator) BypassesMaintenance() bool  { return true }
func (AdminNavigator) sealed()                    {}

// MemberNavigator serves students and parents.
type MemberNavigator struct{}

func (MemberNavigator) Variant() Variant { return VariantMember }

func (MemberNavigator) Tabs() []Tab {
	return []Tab{TabBatches, TabClasses, TabTests, TabFees, TabAttendance}
}

func (MemberNavigator) Resources() []Resource      { return append([]Resource{}, memberResources...) }
func (MemberNavigator) CanManageCurriculum() bool  { return false }
func (MemberNavigator) CanSendNotifications() bool { return false }
func (MemberNavigator) CanManageSettings() bool    { return false }
func (MemberNavigator) BypassesMaintenance() bool  { return false }
func (MemberNavigator) sealed()                    {}

// CapabilitiesFor returns nil for a role that is not set up.
func CapabilitiesFor(role user.Role) Capabilities {
	switch role {
	case user.RoleAdmin:
		return AdminNavigator{}
	case user.RoleStudent, user.RoleParent:
		return MemberNavigator{}
	}
	return nil
}

func hasTab(caps Capabilities, t Tab) bool {
	for _, tab := range caps.Tabs() {
		if tab == t {
			return true
		}
	}
	return false
}

func hasResource(caps Capabilities, r Resource) bool {
	for _, res := range caps.Resources() {
		if res == r {
			return true
		}
	}
	return false
}
