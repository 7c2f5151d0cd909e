package editing

import "github.com/jonathan/cv-builder/internal/types"

// deepCopyDocument creates a deep copy of a CVDocument so the copy never aliases
// the caller's slices or pointers
func deepCopyDocument(doc *types.CVDocument) *types.CVDocument {
	out := *doc // scalar fields and PersonalInfo are copied by value

	if doc.OwnerID != nil {
		owner := *doc.OwnerID
		out.OwnerID = &owner
	}
	if doc.CreatedAt != nil {
		created := *doc.CreatedAt
		out.CreatedAt = &created
	}
	if doc.UpdatedAt != nil {
		updated := *doc.UpdatedAt
		out.UpdatedAt = &updated
	}

	if doc.Experiences != nil {
		out.Experiences = make([]types.Experience, len(doc.Experiences))
		copy(out.Experiences, doc.Experiences)
	}
	if doc.Educations != nil {
		out.Educations = make([]types.Education, len(doc.Educations))
		copy(out.Educations, doc.Educations)
	}
	if doc.Skills != nil {
		out.Skills = make([]string, len(doc.Skills), len(doc.Skills)+4)
		copy(out.Skills, doc.Skills)
	}

	return &out
}
