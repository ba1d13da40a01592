package server

// Route path constants
// All dashboard routes are defined here to ensure consistency and prevent typos
const (
	// Entry (login) page
	RouteRoot  = "/"
	RouteIndex = "/index.html"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Role pages
	RouteParentPage     = "/pages/parent.html"
	RouteTeacherPage    = "/pages/teacher.html"
	RouteSpecialistPage = "/pages/specialist.html"
	RouteAdminPage      = "/pages/admin.html"
	RouteStaffPage      = "/pages/staff.html"

	// API proxy for the signed-in session
	RouteAPIResource = "/api/{resource}"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
