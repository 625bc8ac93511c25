package resumes

import (
	"context"
	"fmt"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

// ownedBy matches section rows whose resume belongs to userID.
func ownedBy(id, userID string) store.Filter {
	return store.And(
		store.Eq(store.ColumnID, id),
		store.Is("resume", store.Eq("user_id", userID)),
	)
}

func checkOwned[T any](ctx context.Context, d *store.Delegate[T], id, userID string) error {
	_, err := d.FindFirst(ctx, store.FindArgs{Where: ownedBy(id, userID), Select: []string{store.ColumnID}})
	return notFound(err)
}

func deleteOwned[T any](ctx context.Context, d *store.Delegate[T], id, userID string) error {
	n, err := d.DeleteMany(ctx, ownedBy(id, userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nextPosition is one past the highest position under parentID, or 0.
func nextPosition[T any](ctx context.Context, d *store.Delegate[T], fk, parentID string) (int, error) {
	res, err := d.Aggregate(ctx, store.AggregateArgs{
		Where: store.Eq(fk, parentID),
		Max:   []string{"position"},
	})
	if err != nil {
		return 0, err
	}
	switch v := res.Max["position"].(type) {
	case int64:
		return int(v) + 1, nil
	case float64:
		return int(v) + 1, nil
	}
	return 0, nil
}

func (s *Service) sectionWrite(ctx context.Context, userID string, in any, fn func(tx *models.Client) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireUser(userID); err != nil {
		return err
	}
	if in != nil {
		if err := s.check(in); err != nil {
			return err
		}
	}
	return s.DB.Tx(ctx, fn)
}

// SetContact creates or replaces the contact block and its socials.
func (s *Service) SetContact(ctx context.Context, userID string, in ContactInput) (models.Contact, error) {
	var out models.Contact
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		rid, err := resumeID(ctx, tx, userID)
		if err != nil {
			return err
		}
		out, err = writeContact(ctx, tx, rid, in)
		return err
	})
	return out, err
}

func writeContact(ctx context.Context, tx *models.Client, resumeID string, in ContactInput) (models.Contact, error) {
	contact, err := tx.Contact.Upsert(ctx, store.UpsertArgs[models.Contact]{
		Where:  store.Eq("resume_id", resumeID),
		Create: models.Contact{ResumeID: resumeID, Email: in.Email, Tel: in.Tel},
		Update: store.Data{"email": store.Nullable(in.Email), "tel": store.Nullable(in.Tel)},
	})
	if err != nil {
		return models.Contact{}, fmt.Errorf("upsert contact: %w", err)
	}
	if _, err := tx.Social.DeleteMany(ctx, store.Eq("contact_id", contact.ID)); err != nil {
		return models.Contact{}, fmt.Errorf("clear socials: %w", err)
	}
	socials := make([]models.Social, 0, len(in.Socials))
	for i, sc := range in.Socials {
		socials = append(socials, models.Social{ContactID: contact.ID, Name: sc.Name, URL: sc.URL, Icon: sc.Icon, Position: i})
	}
	if _, err := tx.Social.CreateMany(ctx, socials, false); err != nil {
		return models.Contact{}, fmt.Errorf("create socials: %w", err)
	}
	return tx.Contact.FindUnique(ctx, store.FindUniqueArgs{
		Where:   store.Eq(store.ColumnID, contact.ID),
		Include: []store.Include{{Relation: "socials", OrderBy: byPosition}},
	})
}

func (s *Service) AddEducation(ctx context.Context, userID string, in EducationInput) (models.Education, error) {
	var out models.Education
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		rid, err := resumeID(ctx, tx, userID)
		if err != nil {
			return err
		}
		pos, err := positionFor(ctx, tx.Education, rid, in.Position)
		if err != nil {
			return err
		}
		out, err = tx.Education.Create(ctx, in.model(rid, pos))
		return err
	})
	return out, err
}

func (s *Service) UpdateEducation(ctx context.Context, userID, id string, in EducationInput) (models.Education, error) {
	var out models.Education
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		if err := checkOwned(ctx, tx.Education, id, userID); err != nil {
			return err
		}
		var err error
		out, err = tx.Education.Update(ctx, store.UpdateArgs{Where: store.Eq(store.ColumnID, id), Data: in.data()})
		return err
	})
	return out, err
}

func (s *Service) DeleteEducation(ctx context.Context, userID, id string) error {
	return s.sectionWrite(ctx, userID, nil, func(tx *models.Client) error {
		return deleteOwned(ctx, tx.Education, id, userID)
	})
}

func (s *Service) AddWork(ctx context.Context, userID string, in WorkInput) (models.Work, error) {
	var out models.Work
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		rid, err := resumeID(ctx, tx, userID)
		if err != nil {
			return err
		}
		pos, err := positionFor(ctx, tx.Work, rid, in.Position)
		if err != nil {
			return err
		}
		out, err = createWork(ctx, tx, in.model(rid, pos), in)
		return err
	})
	return out, err
}

// UpdateWork rewrites a work entry. Its tasks and badges are replaced by the input lists.
func (s *Service) UpdateWork(ctx context.Context, userID, id string, in WorkInput) (models.Work, error) {
	var out models.Work
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		if err := checkOwned(ctx, tx.Work, id, userID); err != nil {
			return err
		}
		if _, err := tx.Work.Update(ctx, store.UpdateArgs{Where: store.Eq(store.ColumnID, id), Data: in.data()}); err != nil {
			return err
		}
		if _, err := tx.WorkTasks.DeleteMany(ctx, store.Eq("work_id", id)); err != nil {
			return fmt.Errorf("clear tasks: %w", err)
		}
		if _, err := tx.WorkBadge.DeleteMany(ctx, store.Eq("work_id", id)); err != nil {
			return fmt.Errorf("clear badges: %w", err)
		}
		var err error
		out, err = writeWorkChildren(ctx, tx, id, in)
		return err
	})
	return out, err
}

func (s *Service) DeleteWork(ctx context.Context, userID, id string) error {
	return s.sectionWrite(ctx, userID, nil, func(tx *models.Client) error {
		return deleteOwned(ctx, tx.Work, id, userID)
	})
}

func createWork(ctx context.Context, tx *models.Client, w models.Work, in WorkInput) (models.Work, error) {
	created, err := tx.Work.Create(ctx, w)
	if err != nil {
		return models.Work{}, fmt.Errorf("create work: %w", err)
	}
	return writeWorkChildren(ctx, tx, created.ID, in)
}

func writeWorkChildren(ctx context.Context, tx *models.Client, workID string, in WorkInput) (models.Work, error) {
	tasks := make([]models.WorkTasks, 0, len(in.Tasks))
	for i, d := range in.Tasks {
		tasks = append(tasks, models.WorkTasks{WorkID: workID, Description: d, Position: i})
	}
	if _, err := tx.WorkTasks.CreateMany(ctx, tasks, false); err != nil {
		return models.Work{}, fmt.Errorf("create tasks: %w", err)
	}
	badges := make([]models.WorkBadge, 0, len(in.Badges))
	for i, name := range in.Badges {
		badges = append(badges, models.WorkBadge{WorkID: workID, Name: name, Position: i})
	}
	if _, err := tx.WorkBadge.CreateMany(ctx, badges, false); err != nil {
		return models.Work{}, fmt.Errorf("create badges: %w", err)
	}
	return tx.Work.FindUnique(ctx, store.FindUniqueArgs{
		Where: store.Eq(store.ColumnID, workID),
		Include: []store.Include{
			{Relation: "tasks", OrderBy: byPosition},
			{Relation: "badges", OrderBy: byPosition},
		},
	})
}

func (s *Service) AddSkill(ctx context.Context, userID string, in SkillInput) (models.Skill, error) {
	var out models.Skill
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		rid, err := resumeID(ctx, tx, userID)
		if err != nil {
			return err
		}
		pos, err := positionFor(ctx, tx.Skill, rid, in.Position)
		if err != nil {
			return err
		}
		out, err = tx.Skill.Create(ctx, models.Skill{ResumeID: rid, Name: in.Name, Position: pos})
		return err
	})
	return out, err
}

func (s *Service) UpdateSkill(ctx context.Context, userID, id string, in SkillInput) (models.Skill, error) {
	var out models.Skill
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		if err := checkOwned(ctx, tx.Skill, id, userID); err != nil {
			return err
		}
		var err error
		out, err = tx.Skill.Update(ctx, store.UpdateArgs{
			Where: store.Eq(store.ColumnID, id),
			Data:  withPosition(store.Data{"name": in.Name}, in.Position),
		})
		return err
	})
	return out, err
}

func (s *Service) DeleteSkill(ctx context.Context, userID, id string) error {
	return s.sectionWrite(ctx, userID, nil, func(tx *models.Client) error {
		return deleteOwned(ctx, tx.Skill, id, userID)
	})
}

func (s *Service) AddProject(ctx context.Context, userID string, in ProjectInput) (models.Project, error) {
	var out models.Project
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		rid, err := resumeID(ctx, tx, userID)
		if err != nil {
			return err
		}
		pos, err := positionFor(ctx, tx.Project, rid, in.Position)
		if err != nil {
			return err
		}
		out, err = createProject(ctx, tx, in.model(rid, pos), in)
		return err
	})
	return out, err
}

// UpdateProject rewrites a project. Its techs and link are replaced by the input.
func (s *Service) UpdateProject(ctx context.Context, userID, id string, in ProjectInput) (models.Project, error) {
	var out models.Project
	err := s.sectionWrite(ctx, userID, in, func(tx *models.Client) error {
		if err := checkOwned(ctx, tx.Project, id, userID); err != nil {
			return err
		}
		if _, err := tx.Project.Update(ctx, store.UpdateArgs{Where: store.Eq(store.ColumnID, id), Data: in.data()}); err != nil {
			return err
		}
		if _, err := tx.ProjectTech.DeleteMany(ctx, store.Eq("project_id", id)); err != nil {
			return fmt.Errorf("clear techs: %w", err)
		}
		if _, err := tx.ProjectLink.DeleteMany(ctx, store.Eq("project_id", id)); err != nil {
			return fmt.Errorf("clear link: %w", err)
		}
		var err error
		out, err = writeProjectChildren(ctx, tx, id, in)
		return err
	})
	return out, err
}

func (s *Service) DeleteProject(ctx context.Context, userID, id string) error {
	return s.sectionWrite(ctx, userID, nil, func(tx *models.Client) error {
		return deleteOwned(ctx, tx.Project, id, userID)
	})
}

func createProject(ctx context.Context, tx *models.Client, p models.Project, in ProjectInput) (models.Project, error) {
	created, err := tx.Project.Create(ctx, p)
	if err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	return writeProjectChildren(ctx, tx, created.ID, in)
}

func writeProjectChildren(ctx context.Context, tx *models.Client, projectID string, in ProjectInput) (models.Project, error) {
	techs := make([]models.ProjectTech, 0, len(in.Techs))
	for i, name := range in.Techs {
		techs = append(techs, models.ProjectTech{ProjectID: projectID, Name: name, Position: i})
	}
	if _, err := tx.ProjectTech.CreateMany(ctx, techs, false); err != nil {
		return models.Project{}, fmt.Errorf("create techs: %w", err)
	}
	if in.Link != nil {
		if _, err := tx.ProjectLink.Create(ctx, models.ProjectLink{ProjectID: projectID, Label: in.Link.Label, Href: in.Link.Href}); err != nil {
			return models.Project{}, fmt.Errorf("create link: %w", err)
		}
	}
	return tx.Project.FindUnique(ctx, store.FindUniqueArgs{
		Where:   store.Eq(store.ColumnID, projectID),
		Include: []store.Include{{Relation: "techs", OrderBy: byPosition}, store.With("link")},
	})
}

func positionFor[T any](ctx context.Context, d *store.Delegate[T], resumeID string, requested *int) (int, error) {
	if requested != nil {
		return *requested, nil
	}
	return nextPosition(ctx, d, "resume_id", resumeID)
}
