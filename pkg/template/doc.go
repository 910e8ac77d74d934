// Package template expands ${NAME} placeholders against a flat variable context.
//
// Operators reference build-time values such as the build number, job name
// or commit hash inside deployment overrides:
//
//	vars := template.Variables{"BUILD_NUMBER": "42"}
//	template.Resolve("registry/app:${BUILD_NUMBER}", vars) // registry/app:42
//
// Unknown placeholders are left untouched so that values destined for the
// orchestrator's own substitution survive rendering. Resolution is pure and
// never fails.
package template
