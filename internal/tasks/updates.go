package tasks

import (
	"fmt"

	"github.com/desertthunder/ytstream/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ResolveItems Phase = iota
	ResolveItem
	ResolveDone
)

func (p Phase) String() string {
	switch p {
	case ResolveItems:
		return "resolve_items"
	case ResolveItem:
		return "resolve_item"
	case ResolveDone:
		return "resolve_done"
	default:
		return ""
	}
}

func resolvingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d items...", total),
	}
}

func resolvedUpdate(step, total int, asset *models.MediaAsset) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, asset.Author, asset.Title),
		Data:    asset,
	}
}

func resolveFailedUpdate(step, total int, label string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, label, err),
	}
}

func resolveDoneUpdate(res *BulkResolveResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveDone,
		Step:    res.Total,
		Total:   res.Total,
		Message: fmt.Sprintf("Resolved %d/%d items", res.Resolved, res.Total),
		Data:    res,
	}
}
