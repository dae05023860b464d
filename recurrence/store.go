package recurrence

import (
	"context"

	"github.com/warp/recurring-engine/generic"
)

// TemplateStore persists templates. GetTemplate returns (nil, nil) when the
// template does not exist.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, t Template) error
	GetTemplate(ctx context.Context, id generic.TemplateID) (*Template, error)
	// ListTemplates returns every template, active and inactive.
	ListTemplates(ctx context.Context) ([]Template, error)
}
