package models

import (
	"context"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

// Client is the typed entry point to the resume-builder tables.
type Client struct {
	core *store.Client

	User        *store.Delegate[User]
	Resume      *store.Delegate[Resume]
	Contact     *store.Delegate[Contact]
	Social      *store.Delegate[Social]
	Education   *store.Delegate[Education]
	Work        *store.Delegate[Work]
	WorkTasks   *store.Delegate[WorkTasks]
	WorkBadge   *store.Delegate[WorkBadge]
	Skill       *store.Delegate[Skill]
	Project     *store.Delegate[Project]
	ProjectTech *store.Delegate[ProjectTech]
	ProjectLink *store.Delegate[ProjectLink]
}

// New wraps core. core's schema must come from NewSchema.
func New(core *store.Client) *Client {
	return &Client{
		core:        core,
		User:        store.NewDelegate(core, ModelUser, UserCodec),
		Resume:      store.NewDelegate(core, ModelResume, ResumeCodec),
		Contact:     store.NewDelegate(core, ModelContact, ContactCodec),
		Social:      store.NewDelegate(core, ModelSocial, SocialCodec),
		Education:   store.NewDelegate(core, ModelEducation, EducationCodec),
		Work:        store.NewDelegate(core, ModelWork, WorkCodec),
		WorkTasks:   store.NewDelegate(core, ModelWorkTasks, WorkTasksCodec),
		WorkBadge:   store.NewDelegate(core, ModelWorkBadge, WorkBadgeCodec),
		Skill:       store.NewDelegate(core, ModelSkill, SkillCodec),
		Project:     store.NewDelegate(core, ModelProject, ProjectCodec),
		ProjectTech: store.NewDelegate(core, ModelProjectTech, ProjectTechCodec),
		ProjectLink: store.NewDelegate(core, ModelProjectLink, ProjectLinkCodec),
	}
}

// NewMemory returns a client over a fresh in-memory engine.
func NewMemory(opts ...store.Option) *Client {
	return New(store.NewClient(store.NewMemoryEngine(NewSchema()), opts...))
}

// Core exposes the untyped client.
func (c *Client) Core() *store.Client { return c.core }

func (c *Client) Ping(ctx context.Context) error { return c.core.Ping(ctx) }

// Tx runs fn against a client bound to one transaction.
func (c *Client) Tx(ctx context.Context, fn func(tx *Client) error) error {
	return c.core.Tx(ctx, func(tx *store.Client) error {
		return fn(New(tx))
	})
}
