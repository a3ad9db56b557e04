package rbac

// Default policy. Participants take assessments; admins manage the
// catalog and collect results.
var RolePermissions = map[string][]string{
	"participant": {
		"exam:view",
		"answer:submit",
		"answer:view-own",
		"track:finish",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
