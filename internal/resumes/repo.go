package resumes

import "context"

// Repo persists resumes and their ordered child lists.
type Repo interface {
	FindByIDAndOwner(ctx context.Context, id, userID string) (Resume, error)
	CountByOwner(ctx context.Context, userID string) (int, error)
	// Create inserts the resume and its children, assigning ID and timestamps when empty.
	Create(ctx context.Context, r Resume) (Resume, error)
	// Update replaces scalar fields and all child rows of an owned resume.
	Update(ctx context.Context, r Resume) (Resume, error)
	ListByOwner(ctx context.Context, userID string) ([]Resume, error)
	Delete(ctx context.Context, id, userID string) error
}
