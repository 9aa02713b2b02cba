// Package access holds the single authorization table shared by the
// workflows (which enforce it) and the HTTP layer (which gates routes and
// tells clients what to render).
package access

import "github.com/iliyamo/campaign-tracker/internal/model"

// Capability names one operation class.
type Capability string

const (
	ViewOwnVideos   Capability = "videos:read:own"
	ViewAllVideos   Capability = "videos:read:all"
	CreateVideo     Capability = "videos:create"
	EditOwnVideo    Capability = "videos:edit:own"
	EditAnyVideo    Capability = "videos:edit:any"
	DeleteVideo     Capability = "videos:delete"
	RequestDeletion Capability = "deletions:request"
	ReviewDeletions Capability = "deletions:review"
	SetPayment      Capability = "payments:set"
	ManageTeam      Capability = "team:manage"
	EditProfile     Capability = "profile:edit"
)

var byRole = map[model.Role][]Capability{
	model.RoleNew: {EditProfile},
	model.RoleWorker: {
		EditProfile, ViewOwnVideos, CreateVideo, EditOwnVideo, RequestDeletion,
	},
	model.RoleAdmin: {
		EditProfile, ViewOwnVideos, ViewAllVideos, CreateVideo, EditOwnVideo,
		EditAnyVideo, DeleteVideo, RequestDeletion, ReviewDeletions, SetPayment,
		ManageTeam,
	},
}

// Suspension only restricts workers: they keep read access but may no
// longer create, edit or request deletion of records.
var suspendedDenied = map[Capability]bool{
	CreateVideo:     true,
	EditOwnVideo:    true,
	RequestDeletion: true,
}

// For returns the capability set of a role/suspension pair. Unknown roles
// (including the anonymous "") get nothing.
func For(role model.Role, suspended bool) []Capability {
	caps := byRole[role]
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if suspended && role == model.RoleWorker && suspendedDenied[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}
