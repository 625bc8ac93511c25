package models

import (
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

func stamp(r store.Row, id string, created, updated any) store.Row {
	r[store.ColumnID] = id
	r[store.ColumnCreatedAt] = created
	r[store.ColumnUpdatedAt] = updated
	return r
}

var UserCodec = store.Codec[User]{
	Encode: func(u User) store.Row {
		return stamp(store.Row{
			"email": u.Email,
			"name":  store.Nullable(u.Name),
		}, u.ID, u.CreatedAt, u.UpdatedAt)
	},
	Decode: decodeUser,
}

func decodeUser(r store.Row) (User, error) {
	u := User{
		ID:        r.String("id"),
		Email:     r.String("email"),
		Name:      r.StringPtr("name"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
	var err error
	u.Resume, err = store.One(r, "resume", decodeResume)
	return u, err
}

var ResumeCodec = store.Codec[Resume]{
	Encode: func(v Resume) store.Row {
		return stamp(store.Row{
			"user_id":              store.Nullable(v.UserID),
			"name":                 v.Name,
			"initials":             store.Nullable(v.Initials),
			"location":             store.Nullable(v.Location),
			"location_link":        store.Nullable(v.LocationLink),
			"about":                store.Nullable(v.About),
			"summary":              store.Nullable(v.Summary),
			"avatar_url":           store.Nullable(v.AvatarURL),
			"personal_website_url": store.Nullable(v.PersonalWebsiteURL),
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeResume,
}

func decodeResume(r store.Row) (Resume, error) {
	v := Resume{
		ID:                 r.String("id"),
		UserID:             r.StringPtr("user_id"),
		Name:               r.String("name"),
		Initials:           r.StringPtr("initials"),
		Location:           r.StringPtr("location"),
		LocationLink:       r.StringPtr("location_link"),
		About:              r.StringPtr("about"),
		Summary:            r.StringPtr("summary"),
		AvatarURL:          r.StringPtr("avatar_url"),
		PersonalWebsiteURL: r.StringPtr("personal_website_url"),
		CreatedAt:          r.Time("created_at"),
		UpdatedAt:          r.Time("updated_at"),
	}
	var err error
	if v.User, err = store.One(r, "user", decodeUser); err != nil {
		return v, err
	}
	if v.Contact, err = store.One(r, "contact", decodeContact); err != nil {
		return v, err
	}
	if v.Educations, err = store.Many(r, "educations", decodeEducation); err != nil {
		return v, err
	}
	if v.Works, err = store.Many(r, "works", decodeWork); err != nil {
		return v, err
	}
	if v.Skills, err = store.Many(r, "skills", decodeSkill); err != nil {
		return v, err
	}
	v.Projects, err = store.Many(r, "projects", decodeProject)
	return v, err
}

var ContactCodec = store.Codec[Contact]{
	Encode: func(v Contact) store.Row {
		return stamp(store.Row{
			"resume_id": v.ResumeID,
			"email":     store.Nullable(v.Email),
			"tel":       store.Nullable(v.Tel),
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeContact,
}

func decodeContact(r store.Row) (Contact, error) {
	v := Contact{
		ID:        r.String("id"),
		ResumeID:  r.String("resume_id"),
		Email:     r.StringPtr("email"),
		Tel:       r.StringPtr("tel"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
	var err error
	v.Socials, err = store.Many(r, "socials", decodeSocial)
	return v, err
}

var SocialCodec = store.Codec[Social]{
	Encode: func(v Social) store.Row {
		return stamp(store.Row{
			"contact_id": v.ContactID,
			"name":       v.Name,
			"url":        v.URL,
			"icon":       store.Nullable(v.Icon),
			"position":   v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeSocial,
}

func decodeSocial(r store.Row) (Social, error) {
	return Social{
		ID:        r.String("id"),
		ContactID: r.String("contact_id"),
		Name:      r.String("name"),
		URL:       r.String("url"),
		Icon:      r.StringPtr("icon"),
		Position:  r.Int("position"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}

var EducationCodec = store.Codec[Education]{
	Encode: func(v Education) store.Row {
		return stamp(store.Row{
			"resume_id": v.ResumeID,
			"school":    v.School,
			"degree":    v.Degree,
			"start":     store.Nullable(v.Start),
			"end":       store.Nullable(v.End),
			"position":  v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeEducation,
}

func decodeEducation(r store.Row) (Education, error) {
	return Education{
		ID:        r.String("id"),
		ResumeID:  r.String("resume_id"),
		School:    r.String("school"),
		Degree:    r.String("degree"),
		Start:     r.StringPtr("start"),
		End:       r.StringPtr("end"),
		Position:  r.Int("position"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}

var WorkCodec = store.Codec[Work]{
	Encode: func(v Work) store.Row {
		return stamp(store.Row{
			"resume_id":   v.ResumeID,
			"company":     v.Company,
			"link":        store.Nullable(v.Link),
			"title":       v.Title,
			"logo":        store.Nullable(v.Logo),
			"start":       store.Nullable(v.Start),
			"end":         store.Nullable(v.End),
			"description": store.Nullable(v.Description),
			"position":    v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeWork,
}

func decodeWork(r store.Row) (Work, error) {
	v := Work{
		ID:          r.String("id"),
		ResumeID:    r.String("resume_id"),
		Company:     r.String("company"),
		Link:        r.StringPtr("link"),
		Title:       r.String("title"),
		Logo:        r.StringPtr("logo"),
		Start:       r.StringPtr("start"),
		End:         r.StringPtr("end"),
		Description: r.StringPtr("description"),
		Position:    r.Int("position"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
	var err error
	if v.Tasks, err = store.Many(r, "tasks", decodeWorkTasks); err != nil {
		return v, err
	}
	v.Badges, err = store.Many(r, "badges", decodeWorkBadge)
	return v, err
}

var WorkTasksCodec = store.Codec[WorkTasks]{
	Encode: func(v WorkTasks) store.Row {
		return stamp(store.Row{
			"work_id":     v.WorkID,
			"description": v.Description,
			"position":    v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeWorkTasks,
}

func decodeWorkTasks(r store.Row) (WorkTasks, error) {
	return WorkTasks{
		ID:          r.String("id"),
		WorkID:      r.String("work_id"),
		Description: r.String("description"),
		Position:    r.Int("position"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}, nil
}

var WorkBadgeCodec = store.Codec[WorkBadge]{
	Encode: func(v WorkBadge) store.Row {
		return stamp(store.Row{
			"work_id":  v.WorkID,
			"name":     v.Name,
			"position": v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeWorkBadge,
}

func decodeWorkBadge(r store.Row) (WorkBadge, error) {
	return WorkBadge{
		ID:        r.String("id"),
		WorkID:    r.String("work_id"),
		Name:      r.String("name"),
		Position:  r.Int("position"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}

var SkillCodec = store.Codec[Skill]{
	Encode: func(v Skill) store.Row {
		return stamp(store.Row{
			"resume_id": v.ResumeID,
			"name":      v.Name,
			"position":  v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeSkill,
}

func decodeSkill(r store.Row) (Skill, error) {
	return Skill{
		ID:        r.String("id"),
		ResumeID:  r.String("resume_id"),
		Name:      r.String("name"),
		Position:  r.Int("position"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}

var ProjectCodec = store.Codec[Project]{
	Encode: func(v Project) store.Row {
		return stamp(store.Row{
			"resume_id":   v.ResumeID,
			"title":       v.Title,
			"description": store.Nullable(v.Description),
			"logo":        store.Nullable(v.Logo),
			"position":    v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeProject,
}

func decodeProject(r store.Row) (Project, error) {
	v := Project{
		ID:          r.String("id"),
		ResumeID:    r.String("resume_id"),
		Title:       r.String("title"),
		Description: r.StringPtr("description"),
		Logo:        r.StringPtr("logo"),
		Position:    r.Int("position"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
	var err error
	if v.Techs, err = store.Many(r, "techs", decodeProjectTech); err != nil {
		return v, err
	}
	v.Link, err = store.One(r, "link", decodeProjectLink)
	return v, err
}

var ProjectTechCodec = store.Codec[ProjectTech]{
	Encode: func(v ProjectTech) store.Row {
		return stamp(store.Row{
			"project_id": v.ProjectID,
			"name":       v.Name,
			"position":   v.Position,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeProjectTech,
}

func decodeProjectTech(r store.Row) (ProjectTech, error) {
	return ProjectTech{
		ID:        r.String("id"),
		ProjectID: r.String("project_id"),
		Name:      r.String("name"),
		Position:  r.Int("position"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}

var ProjectLinkCodec = store.Codec[ProjectLink]{
	Encode: func(v ProjectLink) store.Row {
		return stamp(store.Row{
			"project_id": v.ProjectID,
			"label":      store.Nullable(v.Label),
			"href":       v.Href,
		}, v.ID, v.CreatedAt, v.UpdatedAt)
	},
	Decode: decodeProjectLink,
}

func decodeProjectLink(r store.Row) (ProjectLink, error) {
	return ProjectLink{
		ID:        r.String("id"),
		ProjectID: r.String("project_id"),
		Label:     r.StringPtr("label"),
		Href:      r.String("href"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}, nil
}
