package docstore

// Collection names used by the matching core.
const (
	CollectionStudents      = "students"
	CollectionTargets       = "targets"
	CollectionApplications  = "applications"
	CollectionNotifications = "notifications"
)
