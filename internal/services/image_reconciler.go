// internal/services/image_reconciler.go
package services

import (
	"github.com/carlane/carlane-backend/internal/models"
)

// ReconcileImages computes the next image set for a listing from its current
// images, a set of deletion requests and freshly uploaded images. It is total
// and side-effect-free: blob uploads happen before the call and blob deletion
// of the returned removed keys happens after it, both in the caller.
//
// Deletion requests match an image by its id or by its stored blob key;
// unknown entries are ignored. Survivors keep their relative order and new
// uploads are appended after them. primaryIndex, when present and in range,
// picks the primary image in the resulting list; otherwise a surviving
// previous primary is kept, and failing that the first image wins. The
// returned set always has exactly one primary image.
//
// An empty result yields ErrEmptyImageSet and the caller decides whether
// that aborts the whole operation.
func ReconcileImages(current []models.CarImage, deletions []string, uploads []models.CarImage, primaryIndex *int) ([]models.CarImage, []string, error) {
	toDelete := make(map[string]struct{}, len(deletions))
	for _, d := range deletions {
		if d != "" {
			toDelete[d] = struct{}{}
		}
	}

	next := make([]models.CarImage, 0, len(current)+len(uploads))
	removed := make([]string, 0, len(deletions))
	previousPrimary := -1

	for _, img := range current {
		if _, ok := toDelete[img.ID.String()]; ok {
			removed = append(removed, img.StoredName)
			continue
		}
		if _, ok := toDelete[img.StoredName]; ok {
			removed = append(removed, img.StoredName)
			continue
		}
		if img.IsPrimary && previousPrimary == -1 {
			previousPrimary = len(next)
		}
		img.IsPrimary = false
		next = append(next, img)
	}

	for _, img := range uploads {
		img.IsPrimary = false
		next = append(next, img)
	}

	if len(next) == 0 {
		return nil, removed, ErrEmptyImageSet
	}

	primary := 0
	switch {
	case primaryIndex != nil && *primaryIndex >= 0 && *primaryIndex < len(next):
		primary = *primaryIndex
	case previousPrimary >= 0:
		primary = previousPrimary
	}
	next[primary].IsPrimary = true

	for i := range next {
		next[i].SortOrder = i
	}

	return next, removed, nil
}
