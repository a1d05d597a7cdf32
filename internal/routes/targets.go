// internal/routes/targets.go
package routes

import "net/url"

// Redirect targets are part of the contract with the UI layer and must be
// stable strings.
const (
	// TargetLogin is the login route for unauthenticated requests
	TargetLogin = "/login"

	// TargetDashboard is the tenant-less authenticated entry point. It is
	// never renderable itself; hitting it always resolves to a landing
	// redirect.
	TargetDashboard = "/dashboard"

	// TargetAdminOverview is the tenant-less admin overview
	TargetAdminOverview = "/admin"

	// TargetGlobalOverview is the global overview for superadmins
	TargetGlobalOverview = "/admin/overview"

	// TargetNoActiveResidency informs a resident without an active house
	TargetNoActiveResidency = "/no-active-residency"
)

// ReturnParam carries the originally requested path through a login redirect
const ReturnParam = "return"

// HouseParam is the path placeholder name binding the house identifier
const HouseParam = "houseId"

// HouseHome returns the scoped home path for a resident of houseID
func HouseHome(houseID string) string {
	return TargetDashboard + "/" + houseID
}

// AdminHouseHome returns the scoped admin home path for houseID
func AdminHouseHome(houseID string) string {
	return TargetAdminOverview + "/" + houseID
}

// LoginWithReturn returns the login target carrying the requested path so
// the UI can send the subject back after authentication
func LoginWithReturn(requestedPath string) string {
	v := url.Values{}
	v.Set(ReturnParam, requestedPath)
	return TargetLogin + "?" + v.Encode()
}
