// Package tasks defines the regeneration task graph: the named units of
// render work, the scheduler that enqueues them, and the handler that
// executes them and chains follow-ups. Tasks are idempotent, so delivery
// only has to be at-least-once.
package tasks

import "context"

// Task names. Each maps to one handler branch.
const (
	InitializeSite  = "initialize_site"
	WriteThemeFiles = "write_theme_files"
	UpdateSite      = "update_site"
	UpdateSiteTag   = "update_site_tag"
	RenderPost      = "render_post"
	RemovePost      = "remove_post"
	UpdateUserPages = "update_user_pages"
	ChangeDomain    = "change_domain"
	TeardownSite    = "teardown_site"
	FullRender      = "full_render"
)

// Task is one unit of render work. Only the fields a given task name
// needs are set; the rest stay zero and are omitted on the wire.
type Task struct {
	Name   string `json:"name"`
	SiteID string `json:"site_id,omitempty"`
	PostID string `json:"post_id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Domain string `json:"domain,omitempty"`
	Slug   string `json:"slug,omitempty"`

	// Attempt counts deliveries, starting at 0. The queue bumps it on
	// each redelivery and drops the task past its retry budget.
	Attempt int `json:"attempt,omitempty"`
}

// Scheduler enqueues tasks for asynchronous execution. Implementations
// must tolerate duplicate submissions of the same task.
type Scheduler interface {
	Schedule(ctx context.Context, t Task) error
}
